// Package message defines the closed set of typed messages exchanged
// between the scanning context and the monitoring context.
//
// Every message travels as a JSON envelope carrying a "type" tag.
// Decode rejects unknown tags with ErrUnknownType instead of silently
// proceeding; callers log and drop such payloads.
package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sumwatch/sumwatch/internal/checksum"
)

// ErrUnknownType is returned when an envelope carries a tag outside
// the closed variant set.
var ErrUnknownType = errors.New("unknown message type")

// Type tags for the closed variant set.
const (
	TypeDownload         = "download"
	TypeDownloading      = "downloading"
	TypeDownloadComplete = "downloadComplete"
	TypeDeleted          = "deleted"
	TypeError            = "error"
	TypeRemove           = "remove"
)

// Message is implemented by every variant.
type Message interface {
	// MessageType returns the variant's tag.
	MessageType() string
}

// Download announces a page's checksum record: candidate download URLs
// plus the scraped checksum descriptor. Sent from the scanning context
// once per qualifying page.
type Download struct {
	URLs     []string            `json:"urls"`
	Checksum checksum.Descriptor `json:"checksum"`
}

func (Download) MessageType() string { return TypeDownload }

// Downloading reports that a monitored URL has started downloading.
type Downloading struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (Downloading) MessageType() string { return TypeDownloading }

// DownloadComplete reports that a tracked download reached its
// terminal state, with the local path when known.
type DownloadComplete struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
}

func (DownloadComplete) MessageType() string { return TypeDownloadComplete }

// Deleted confirms that a mismatching file was removed.
type Deleted struct {
	ID string `json:"id"`
}

func (Deleted) MessageType() string { return TypeDeleted }

// Error reports a failure in the monitoring context.
type Error struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func (Error) MessageType() string { return TypeError }

// Remove requests deletion of the file behind a tracked download.
type Remove struct {
	ID string `json:"id"`
}

func (Remove) MessageType() string { return TypeRemove }

// Encode wraps a message in its tagged JSON envelope.
func Encode(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", m.MessageType(), err)
	}

	// Splice the tag into the payload object.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("failed to flatten %s payload: %w", m.MessageType(), err)
	}
	fields["type"], err = json.Marshal(m.MessageType())
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// Decode parses a tagged envelope into its concrete variant.
// Unknown tags fail with ErrUnknownType; malformed payloads fail with
// a wrapped unmarshal error.
func Decode(data []byte) (Message, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed message envelope: %w", err)
	}

	var (
		m   Message
		err error
	)
	switch env.Type {
	case TypeDownload:
		var v Download
		err = json.Unmarshal(data, &v)
		m = v
	case TypeDownloading:
		var v Downloading
		err = json.Unmarshal(data, &v)
		m = v
	case TypeDownloadComplete:
		var v DownloadComplete
		err = json.Unmarshal(data, &v)
		m = v
	case TypeDeleted:
		var v Deleted
		err = json.Unmarshal(data, &v)
		m = v
	case TypeError:
		var v Error
		err = json.Unmarshal(data, &v)
		m = v
	case TypeRemove:
		var v Remove
		err = json.Unmarshal(data, &v)
		m = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
	}
	return m, nil
}
