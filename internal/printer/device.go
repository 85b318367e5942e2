// Package printer пишет готовый поток байт на чековый принтер.
package printer

import (
	"context"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// DefaultDevicePath - путь USB-принтера по умолчанию.
const DefaultDevicePath = "/dev/usb/lp0"

// deviceLocks выдаёт один семафор на путь устройства в пределах процесса.
var deviceLocks sync.Map

func lockFor(path string) chan struct{} {
	lock, _ := deviceLocks.LoadOrStore(path, make(chan struct{}, 1))
	return lock.(chan struct{})
}

// Device - эксклюзивный приёмник байт по пути устройства.
type Device struct {
	path   string
	logger *log.Entry
}

// NewDevice создаёт транспорт для устройства. Путь задаётся один раз при сборке.
func NewDevice(path string, logger *log.Entry) *Device {
	if path == "" {
		path = DefaultDevicePath
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Device{
		path:   path,
		logger: logger.WithField("device", path),
	}
}

// Path возвращает путь к устройству.
func (d *Device) Path() string {
	return d.path
}

// Write записывает данные целиком, удерживая устройство на всё время записи.
// ctx учитывается только при ожидании блокировки: начатая запись не прерывается.
func (d *Device) Write(ctx context.Context, data []byte) (err error) {
	lock := lockFor(d.path)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: wait for device %s: %w", domain.ErrTransportFailure, d.path, ctx.Err())
	}
	defer func() { <-lock }()

	f, err := os.OpenFile(d.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", domain.ErrTransportFailure, d.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", domain.ErrTransportFailure, d.path, cerr)
		}
	}()

	if err := lockFile(f); err != nil {
		return fmt.Errorf("%w: lock %s: %w", domain.ErrTransportFailure, d.path, err)
	}
	defer func() {
		if uerr := unlockFile(f); uerr != nil {
			d.logger.WithError(uerr).Warn("failed to release device lock")
		}
	}()

	n, err := f.Write(data)
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrTransportFailure, d.path, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: short write to %s: %d of %d bytes", domain.ErrTransportFailure, d.path, n, len(data))
	}

	d.logger.WithField("bytes", n).Debug("receipt written")
	return nil
}

var _ domain.ReceiptPrinter = (*Device)(nil)
