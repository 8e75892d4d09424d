package masks

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"datapipe/internal/fileutil"
	"datapipe/internal/services"
)

// Paths names the three mask files.
type Paths struct {
	Train string
	Val   string
	Test  string
}

// Save checks the partition and writes each mask as newline-delimited
// true/false values in node id order. Nothing is written when the check
// fails.
func Save(paths Paths, m Masks) error {
	if err := m.Check(); err != nil {
		return err
	}
	for _, item := range []struct {
		path string
		mask []bool
	}{{paths.Train, m.Train}, {paths.Val, m.Val}, {paths.Test, m.Test}} {
		if err := fileutil.WriteFileAtomic(item.path, encode(item.mask), 0o644); err != nil {
			return fmt.Errorf("write mask: %w", err)
		}
	}
	return nil
}

// Load reads the three mask files back.
func Load(paths Paths) (Masks, error) {
	var m Masks
	var err error
	if m.Train, err = readMask(paths.Train); err != nil {
		return Masks{}, err
	}
	if m.Val, err = readMask(paths.Val); err != nil {
		return Masks{}, err
	}
	if m.Test, err = readMask(paths.Test); err != nil {
		return Masks{}, err
	}
	return m, nil
}

func encode(mask []bool) []byte {
	var buf bytes.Buffer
	for _, v := range mask {
		if v {
			buf.WriteString("true\n")
		} else {
			buf.WriteString("false\n")
		}
	}
	return buf.Bytes()
}

func readMask(path string) ([]bool, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "masks", "read mask", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("open mask %s: %w", path, err)
	}
	defer file.Close()

	mask := []bool{}
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "true":
			mask = append(mask, true)
		case "false":
			mask = append(mask, false)
		case "":
			continue
		default:
			return nil, services.Wrap(services.ErrDataIntegrity, "masks", "read mask",
				fmt.Sprintf("%s line %d: %q is not a boolean", path, line, scanner.Text()), nil)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mask %s: %w", path, err)
	}
	return mask, nil
}
