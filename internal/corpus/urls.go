package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultDocIDPrefix joins the document number of the URL index to the
// document file name stem.
const DefaultDocIDPrefix = "page_"

// ParseURLIndex reads "doc_number<TAB>url" lines and maps prefix+doc_number
// to url. Lines with fewer than two fields are ignored.
func ParseURLIndex(r io.Reader, prefix string) (map[string]string, error) {
	urls := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		urls[prefix+fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading url index: %w", err)
	}
	return urls, nil
}

// LoadURLIndex opens path and parses it with ParseURLIndex.
func LoadURLIndex(path, prefix string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening url index: %w", err)
	}
	defer f.Close()
	return ParseURLIndex(f, prefix)
}
