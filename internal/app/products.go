package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// productSeed - запись файла каталога: [{"id":1,"name":"Cake","price":25000}].
type productSeed struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// loadProductsFile читает каталог для in-memory хранилища.
// Файл с ошибкой не применяется частично.
func loadProductsFile(path string) ([]domain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products file: %w", err)
	}

	var seeds []productSeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("decode products file %s: %w", path, err)
	}

	var errs []error
	seen := make(map[int64]struct{}, len(seeds))
	products := make([]domain.Product, 0, len(seeds))
	for i, s := range seeds {
		switch {
		case s.ID <= 0:
			errs = append(errs, fmt.Errorf("products[%d]: id must be positive", i))
			continue
		case strings.TrimSpace(s.Name) == "":
			errs = append(errs, fmt.Errorf("products[%d]: name is required", i))
			continue
		case s.Price < 0 || s.Price > domain.MaxUnitPrice:
			errs = append(errs, fmt.Errorf("products[%d]: price must be within [0, %d]", i, domain.MaxUnitPrice))
			continue
		}
		if _, dup := seen[s.ID]; dup {
			errs = append(errs, fmt.Errorf("products[%d]: duplicate id %d", i, s.ID))
			continue
		}
		seen[s.ID] = struct{}{}
		products = append(products, domain.Product{ID: s.ID, Name: s.Name, Price: s.Price})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("products file %s: %w", path, err)
	}
	return products, nil
}
