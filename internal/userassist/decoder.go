package userassist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"

	"github.com/blackwell-systems/uassist/internal/guidmap"
	"github.com/blackwell-systems/uassist/internal/logging"
	"github.com/blackwell-systems/uassist/internal/source"
)

// Decoder turns raw entries into records. It holds no mutable state, so one
// Decoder may serve concurrent walks.
type Decoder struct {
	resolver guidmap.Resolver
}

// Result is the outcome of a full walk.
type Result struct {
	Records []*Record

	// Excluded counts session pseudo-records.
	Excluded int
	// Skipped counts entries dropped as malformed.
	Skipped int
}

// NewDecoder returns a Decoder resolving folder GUIDs through r.
func NewDecoder(r guidmap.Resolver) *Decoder {
	return &Decoder{resolver: r}
}

// Decode decodes a single entry. It returns nil, nil for the session
// pseudo-record.
func (d *Decoder) Decode(e source.RawEntry) (*Record, error) {
	raw, err := e.DecodeName()
	if err != nil {
		return nil, goerr.Wrap(ErrMalformedRecord, "cannot decode value name", goerr.V("cause", err.Error()))
	}
	return DecodeRecord(DecodeName(raw, d.resolver), e.Value)
}

// Run walks src and decodes every entry. Malformed entries are logged and
// skipped; any other error ends the walk.
func (d *Decoder) Run(ctx context.Context, src source.Source) (*Result, error) {
	logger := logging.From(ctx)
	res := &Result{}

	err := src.Walk(ctx, func(e source.RawEntry) error {
		rec, err := d.Decode(e)
		switch {
		case errors.Is(err, ErrMalformedRecord):
			res.Skipped++
			logger.Warn("skipping malformed record",
				append(logging.ErrorAttrs(err), slog.String("key", e.Key))...)
			return nil
		case err != nil:
			return err
		case rec == nil:
			res.Excluded++
			return nil
		}
		res.Records = append(res.Records, rec)
		return nil
	})
	if err != nil {
		return res, goerr.Wrap(err, "failed to walk UserAssist entries", goerr.V("source", src.String()))
	}

	logger.Debug("decoded UserAssist entries",
		slog.String("source", src.String()),
		slog.Int("records", len(res.Records)),
		slog.Int("skipped", res.Skipped))
	return res, nil
}
