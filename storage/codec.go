package storage

import (
	"bytes"
	"encoding/json"

	"P3DrumMachine/model"
)

// EncodeSession renders s as canonical JSON: keys sorted, two-space indent,
// RFC 3339 timestamps, optional fields omitted and isPlaying never written.
// Encoding the same session twice yields identical bytes.
func EncodeSession(s *model.Session) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return canonicalJSON(raw)
}

// canonicalJSON re-encodes raw through a generic tree. encoding/json writes
// map keys in sorted order, and UseNumber keeps numeric literals untouched.
func canonicalJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSession parses and validates a session file. Every pad comes back
// with IsPlaying false. Failures wrap ErrInvalidSessionFile.
func DecodeSession(data []byte) (*model.Session, error) {
	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, invalidFile("session", err)
	}
	if err := s.Validate(); err != nil {
		return nil, invalidFile("session", err)
	}
	if s.Recordings == nil {
		s.Recordings = []model.Recording{}
	}
	s.ResetTransient()
	return &s, nil
}
