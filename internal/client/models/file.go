package models

import (
	"encoding/json"
	"io"
	"strings"
)

// HashField is the canonical JSON key of a content address.
const HashField = "ipfsHash"

// FileRecord is the metadata service's view of a stored file.
type FileRecord struct {
	FileID         ID     `json:"fileId"`
	IPFSHash       string `json:"ipfsHash"`
	URL            string `json:"url,omitempty"`
	FileName       string `json:"fileName"`
	FileSize       int64  `json:"fileSize"`
	FileType       string `json:"fileType"`
	FileUUID       string `json:"fileuuid,omitempty"`
	ExpirationTime int64  `json:"expirationTime"`
}

// UnmarshalJSON normalizes the content-address key before decoding: some
// endpoints spell it "ipfshash". When both spellings are present the
// canonical one wins.
func (f *FileRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	canonicalizeHashField(raw)

	normalized, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	type plain FileRecord
	var p plain
	if err := json.Unmarshal(normalized, &p); err != nil {
		return err
	}
	*f = FileRecord(p)
	return nil
}

// canonicalizeHashField rewrites every case variant of HashField to the
// canonical key. encoding/json matches keys case-insensitively and keeps the
// last duplicate, so the variants are removed rather than left to chance.
func canonicalizeHashField(raw map[string]json.RawMessage) {
	_, hasCanonical := raw[HashField]
	for k, v := range raw {
		if k == HashField || !strings.EqualFold(k, HashField) {
			continue
		}
		if !hasCanonical {
			raw[HashField] = v
			hasCanonical = true
		}
		delete(raw, k)
	}
}

// Upload is the input of a file upload.
type Upload struct {
	Name    string
	Size    int64
	Type    string
	Content io.Reader
}
