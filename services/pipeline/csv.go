package pipeline

import (
	"encoding/csv"
	"os"

	apperrors "github.com/MikolajSzawerda/find-me-nest/pkg/errors"
)

// ReadSlugs reads the slug batch file produced by the lister. The first row
// is a header and is skipped; only the first column of each row is used.
func ReadSlugs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewConfiguration("failed to open slug file "+path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewConfiguration("failed to read slug file "+path, err)
	}

	slugs := []string{}
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		slugs = append(slugs, row[0])
	}
	return slugs, nil
}
