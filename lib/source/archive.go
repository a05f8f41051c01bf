package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

// Gunzip decompresses [data]. Blobs that are not gzipped are returned as is.
func Gunzip(data []byte) ([]byte, error) {
	if !isGzip(data) {
		return data, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip: %w", err)
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return out, nil
}

// ExtractCSVFiles reads a tar archive, gzipped or not, and returns every .csv file in it keyed by lowercase
// table name. Directories inside the archive are ignored.
func ExtractCSVFiles(data []byte) (map[string][]byte, error) {
	data, err := Gunzip(data)
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte)
	reader := tar.NewReader(bytes.NewReader(data))
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		name := path.Base(header.Name)
		if strings.HasPrefix(name, ".") || !strings.EqualFold(path.Ext(name), ".csv") {
			continue
		}

		table := strings.ToLower(strings.TrimSuffix(name, path.Ext(name)))
		if _, ok := files[table]; ok {
			return nil, fmt.Errorf("archive has more than one file for table %q", table)
		}

		contents, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", header.Name, err)
		}
		files[table] = contents
	}

	return files, nil
}
