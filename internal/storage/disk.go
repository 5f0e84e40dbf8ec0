package storage

import (
	"os"
	"path/filepath"
)

// DatabaseFiles returns the files SQLite keeps for dbPath in WAL mode.
func DatabaseFiles(dbPath string) []string {
	if dbPath == "" {
		return nil
	}
	return []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
}

// DiskUsageBytes returns the total size in bytes of the given paths.
// Directories are summed recursively; missing paths count as zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		err = filepath.WalkDir(p, func(_ string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			total += fi.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
