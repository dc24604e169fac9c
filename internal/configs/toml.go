package configs

import (
	"bytes"

	"github.com/QB2027/WebFileBrowser/internal/utils"

	"github.com/BurntSushi/toml"
)

// SaveTOML encodes data as TOML and writes it to filePath atomically.
// header, when set, is written verbatim above the encoded document.
func SaveTOML(filePath string, data interface{}, header string) error {
	var buf bytes.Buffer
	buf.WriteString(header)
	if err := toml.NewEncoder(&buf).Encode(data); err != nil {
		return err
	}
	return utils.WriteFileAtomic(filePath, buf.Bytes(), 0644)
}

// LoadTOML decodes filePath into data and returns the keys it did not recognize.
func LoadTOML(filePath string, data interface{}) ([]string, error) {
	md, err := toml.DecodeFile(filePath, data)
	if err != nil {
		return nil, err
	}
	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}
