package domain

import "time"

// MetaKind identifies the concrete type held by a MetaValue.
type MetaKind int

const (
	MetaKindString MetaKind = iota
	MetaKindInt
	MetaKindFloat
	MetaKindTime
)

// MetaValue is a tagged scalar stored in chunk metadata. Using an explicit
// union instead of interface{} keeps metadata reads free of runtime type
// probing at each call site.
type MetaValue struct {
	kind     MetaKind
	strVal   string
	intVal   int64
	floatVal float64
	timeVal  time.Time
}

func MetaString(v string) MetaValue  { return MetaValue{kind: MetaKindString, strVal: v} }
func MetaInt(v int64) MetaValue      { return MetaValue{kind: MetaKindInt, intVal: v} }
func MetaFloat(v float64) MetaValue  { return MetaValue{kind: MetaKindFloat, floatVal: v} }
func MetaTime(v time.Time) MetaValue { return MetaValue{kind: MetaKindTime, timeVal: v} }

// Kind returns the tag of the stored value.
func (v MetaValue) Kind() MetaKind { return v.kind }

// String returns the string payload; ok is false for non-string values.
func (v MetaValue) String() (string, bool) {
	return v.strVal, v.kind == MetaKindString
}

// Int returns the integer payload; ok is false for non-integer values.
func (v MetaValue) Int() (int64, bool) {
	return v.intVal, v.kind == MetaKindInt
}

// Float returns the float payload. Integer values convert losslessly.
func (v MetaValue) Float() (float64, bool) {
	switch v.kind {
	case MetaKindFloat:
		return v.floatVal, true
	case MetaKindInt:
		return float64(v.intVal), true
	default:
		return 0, false
	}
}

// Time returns the timestamp payload; ok is false for non-time values.
func (v MetaValue) Time() (time.Time, bool) {
	return v.timeVal, v.kind == MetaKindTime
}

// Well-known metadata keys produced by upstream splitters.
const (
	MetaKeyIndex       = "index"
	MetaKeyProcessedAt = "processed_at"
	MetaKeySource      = "source"
	MetaKeyFileType    = "file_type"
)

// Chunk is a unit of source text plus optional metadata, produced upstream.
// The engine treats chunks as immutable and never mutates a caller's copy.
type Chunk struct {
	ID       string
	Content  string
	Metadata map[string]MetaValue
}

// MetaIndex reads the splitter-assigned ordinal from metadata.
func (c Chunk) MetaIndex() (int64, bool) {
	if c.Metadata == nil {
		return 0, false
	}
	v, ok := c.Metadata[MetaKeyIndex]
	if !ok {
		return 0, false
	}
	return v.Int()
}

// MetaTime reads a timestamp metadata entry under the given key.
func (c Chunk) MetaTime(key string) (time.Time, bool) {
	if c.Metadata == nil {
		return time.Time{}, false
	}
	v, ok := c.Metadata[key]
	if !ok {
		return time.Time{}, false
	}
	return v.Time()
}

// MetaString reads a string metadata entry under the given key.
func (c Chunk) MetaString(key string) (string, bool) {
	if c.Metadata == nil {
		return "", false
	}
	v, ok := c.Metadata[key]
	if !ok {
		return "", false
	}
	return v.String()
}

// WithContent returns a copy of the chunk carrying new content. Metadata is
// cloned so the original map is never shared.
func (c Chunk) WithContent(content string) Chunk {
	out := Chunk{ID: c.ID, Content: content}
	if c.Metadata != nil {
		out.Metadata = make(map[string]MetaValue, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
