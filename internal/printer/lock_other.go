//go:build !unix

package printer

import "os"

// Вне unix межпроцессной блокировки нет, остаётся только семафор процесса.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
