// Package media opens entry links with the application that suits them.
package media

import (
	_ "embed"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed types.toml
var typesTOML []byte

type Kind int

const (
	KindPage Kind = iota
	KindVideo
	KindAudio
	KindImage
	KindPDF
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	default:
		return "page"
	}
}

type typeRule struct {
	Extensions []string `toml:"extensions"`
	Hosts      []string `toml:"hosts"`
}

type typeTable struct {
	Video typeRule `toml:"video"`
	Audio typeRule `toml:"audio"`
	Image typeRule `toml:"image"`
	PDF   typeRule `toml:"pdf"`
}

// Detector classifies links by file extension, then by host.
type Detector struct {
	order []Kind
	rules map[Kind]typeRule
}

func NewDetector() (*Detector, error) {
	var t typeTable
	if err := toml.Unmarshal(typesTOML, &t); err != nil {
		return nil, fmt.Errorf("parsing media types: %w", err)
	}
	return &Detector{
		order: []Kind{KindVideo, KindAudio, KindImage, KindPDF},
		rules: map[Kind]typeRule{
			KindVideo: t.Video,
			KindAudio: t.Audio,
			KindImage: t.Image,
			KindPDF:   t.PDF,
		},
	}, nil
}

func (d *Detector) Detect(rawURL string) Kind {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return KindPage
	}

	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), "."); ext != "" {
		for _, k := range d.order {
			if slices.Contains(d.rules[k].Extensions, ext) {
				return k
			}
		}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, k := range d.order {
		for _, h := range d.rules[k].Hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return k
			}
		}
	}
	return KindPage
}
