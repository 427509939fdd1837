// Package bot exposes the converter as a chat command: find the image a
// message refers to, fetch it and reply with its glyph-art rendition.
package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/wbrown/charpic"
	"github.com/wbrown/charpic/fetch"
	"github.com/wbrown/charpic/message"
)

// Replies sent by Handle.
const (
	UsageMessage          = "Send an image with /charpic, or reply to a message that contains an image with /charpic."
	GeneratingMessage     = "Generating character art, please wait..."
	DownloadFailedMessage = "Image download failed, please try again later."
	FailedMessage         = "Character art generation failed."
)

// Event is an incoming command message.
type Event struct {
	Sender string
	Chain  message.Chain
}

// Reply is one outgoing message: either text or an encoded image.
type Reply struct {
	Text  string
	Image []byte
	Ext   string
}

// IsImage reports whether the reply carries an image.
func (r Reply) IsImage() bool {
	return len(r.Image) > 0
}

// Fetcher retrieves source image bytes. *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// Plugin is the chat command. Initialize must succeed before Handle is
// called; Handle may then be called concurrently.
type Plugin struct {
	cfg     charpic.Config
	fetcher Fetcher
	client  *fetch.Client
	conv    *charpic.Converter

	initOnce sync.Once
	initErr  error
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithFetcher replaces the HTTP and file fetcher.
func WithFetcher(f Fetcher) Option {
	return func(p *Plugin) {
		p.fetcher = f
	}
}

// New creates a Plugin from configuration.
func New(cfg charpic.Config, opts ...Option) *Plugin {
	p := &Plugin{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize validates the configuration, loads the font once and sets up
// the fetch client. A missing or broken font is not fatal: text is then
// drawn with the built-in face.
func (p *Plugin) Initialize(ctx context.Context) error {
	p.initOnce.Do(func() {
		p.initErr = p.initialize(ctx)
	})
	return p.initErr
}

func (p *Plugin) initialize(ctx context.Context) error {
	log := charpic.Logger()
	if err := p.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	opts, err := p.cfg.ConverterOptions()
	if err != nil {
		return err
	}

	var font *charpic.Font
	switch {
	case p.cfg.FontPath == "":
		log.WarnContext(ctx, "no font configured, using built-in face")
	default:
		font, err = charpic.LoadFont(p.cfg.FontPath, p.cfg.FontSize)
		if err != nil {
			log.WarnContext(ctx, "font unavailable, using built-in face",
				"path", p.cfg.FontPath, "error", err)
			font = nil
		} else {
			log.InfoContext(ctx, "font loaded", "font", font.Name(), "size", font.Size())
		}
	}
	opts = append(opts, charpic.WithFont(font))
	p.conv = charpic.NewConverter(opts...)

	if p.fetcher == nil {
		p.client = fetch.NewClient(
			fetch.WithTimeout(p.cfg.FetchTimeout),
			fetch.WithLegacyTLS(p.cfg.TLSLegacy),
		)
		p.fetcher = p.client
	}
	log.InfoContext(ctx, "charpic plugin initialized")
	return nil
}

// Converter returns the converter built by Initialize.
func (p *Plugin) Converter() *charpic.Converter {
	return p.conv
}

// Handle runs the command for one event and returns the replies in the
// order they are to be sent. It never panics.
func (p *Plugin) Handle(ctx context.Context, ev Event) (replies []Reply) {
	log := charpic.Logger().With("sender", ev.Sender)
	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "charpic command panicked", "error", fmt.Sprint(rec))
			replies = append(replies, Reply{Text: fmt.Sprintf("Error generating character art: %v", rec)})
		}
	}()

	if err := p.Initialize(ctx); err != nil {
		log.ErrorContext(ctx, "plugin not initialized", "error", err)
		return []Reply{{Text: FailedMessage}}
	}

	locator, ok := message.FindImageLocator(ev.Chain)
	if !ok {
		log.WarnContext(ctx, "no image in message")
		return []Reply{{Text: UsageMessage}}
	}
	log.InfoContext(ctx, "image found", "locator", locator)
	replies = append(replies, Reply{Text: GeneratingMessage})

	data, err := p.fetcher.Fetch(ctx, locator)
	if err != nil {
		log.ErrorContext(ctx, "image download failed", "locator", locator, "error", err)
		return append(replies, Reply{Text: DownloadFailedMessage})
	}

	res, err := p.conv.Convert(data)
	if err != nil {
		log.ErrorContext(ctx, "character art generation failed", "error", err)
		return append(replies, Reply{Text: FailedMessage})
	}
	log.InfoContext(ctx, "character art generated",
		"format", res.Format, "animated", res.Animated, "bytes", len(res.Data))
	return append(replies, Reply{Image: res.Data, Ext: res.Extension()})
}

// Terminate releases the fetch client.
func (p *Plugin) Terminate() {
	if p.client != nil {
		p.client.Close()
	}
	charpic.Logger().Info("charpic plugin terminated")
}
