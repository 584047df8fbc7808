package model

import "github.com/google/uuid"

// Sample is a reference to an audio file somewhere on disk. The file itself
// is owned by the filesystem, never by the Sample.
type Sample struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	FileURL      string    `json:"fileURL"`
	Duration     *float64  `json:"duration,omitempty"` // seconds
	WaveformData []byte    `json:"waveformData,omitempty"`
}

// NewSample creates a sample with a fresh ID.
func NewSample(name, fileURL string) Sample {
	return Sample{
		ID:      uuid.New(),
		Name:    name,
		FileURL: fileURL,
	}
}

// Equal reports whether two samples share an identity. Other fields are ignored.
func (s Sample) Equal(other Sample) bool {
	return s.ID == other.ID
}

func (s Sample) clone() Sample {
	c := s
	if s.Duration != nil {
		d := *s.Duration
		c.Duration = &d
	}
	if s.WaveformData != nil {
		c.WaveformData = append([]byte(nil), s.WaveformData...)
	}
	return c
}

// Default collection names
const (
	CollectionDrums       = "Drums"
	CollectionBass        = "Bass"
	CollectionSynth       = "Synth"
	CollectionUserImports = "User Imports"
)

// SampleCollection is a named, ordered group of samples, unique by sample ID.
type SampleCollection struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Samples          []Sample  `json:"samples"`
	IsUserCollection bool      `json:"isUserCollection"`
}

// NewSampleCollection creates an empty collection.
func NewSampleCollection(name string, isUserCollection bool) SampleCollection {
	return SampleCollection{
		ID:               uuid.New(),
		Name:             name,
		Samples:          []Sample{},
		IsUserCollection: isUserCollection,
	}
}

// DefaultLibrary returns the factory collections created at startup.
func DefaultLibrary() []SampleCollection {
	return []SampleCollection{
		NewSampleCollection(CollectionDrums, false),
		NewSampleCollection(CollectionBass, false),
		NewSampleCollection(CollectionSynth, false),
		NewSampleCollection(CollectionUserImports, true),
	}
}

func (c *SampleCollection) indexOf(id uuid.UUID) int {
	for i := range c.Samples {
		if c.Samples[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the sample with the given ID.
func (c *SampleCollection) Find(id uuid.UUID) (Sample, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.Samples[i], true
	}
	return Sample{}, false
}

// Add appends a sample. Returns false if a sample with the same ID is already present.
func (c *SampleCollection) Add(sample Sample) bool {
	if c.indexOf(sample.ID) >= 0 {
		return false
	}
	c.Samples = append(c.Samples, sample)
	return true
}

// Remove deletes the sample with the given ID, if present.
func (c *SampleCollection) Remove(id uuid.UUID) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.Samples = append(c.Samples[:i], c.Samples[i+1:]...)
	return true
}

// Replace swaps the sample with the given ID for newSample, keeping its
// position. It is a no-op if id is absent or if newSample's ID belongs to a
// different member of the collection.
func (c *SampleCollection) Replace(id uuid.UUID, newSample Sample) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	if j := c.indexOf(newSample.ID); j >= 0 && j != i {
		return false
	}
	c.Samples[i] = newSample
	return true
}

// Clone returns a deep copy of the collection.
func (c SampleCollection) Clone() SampleCollection {
	out := c
	out.Samples = make([]Sample, len(c.Samples))
	for i, s := range c.Samples {
		out.Samples[i] = s.clone()
	}
	return out
}
