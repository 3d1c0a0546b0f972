package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"slices"
	"sync"

	"go.uber.org/multierr"

	"github.com/haukened/rr-dash/internal/dash/common/log"
	"github.com/haukened/rr-dash/internal/dash/common/utils"
	"github.com/haukened/rr-dash/internal/dash/domain"
	"github.com/haukened/rr-dash/internal/dash/repos/listfile"
)

const (
	importToastID = "whitelist-import"
	importSummary = "Imported %d of %d domains"
)

// ListFormat selects the parser used by Import.
type ListFormat uint8

const (
	// FormatPlain is one domain per line.
	FormatPlain ListFormat = iota
	// FormatHosts is /etc/hosts syntax.
	FormatHosts
)

// ImportResult summarises a bulk import.
type ImportResult struct {
	Added   []string
	Skipped []string // already present
	Failed  []string
}

// WhitelistView manages the allow list. Local state changes only after the
// server confirms a change.
type WhitelistView struct {
	api      API
	notifier Notifier
	logger   log.Logger

	mu      sync.Mutex
	domains []string
}

// NewWhitelistView creates a WhitelistView.
func NewWhitelistView(api API, notifier Notifier, logger log.Logger) *WhitelistView {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &WhitelistView{api: api, notifier: notifier, logger: logger}
}

// Load replaces the local list with the server's.
func (v *WhitelistView) Load(ctx context.Context) error {
	out := v.api.Get(ctx, "whitelist", domain.RequestOptions{})
	if !out.OK() {
		return failed("whitelist", out)
	}
	var list domain.DomainList
	if out.Payload != nil {
		if err := out.Decode(&list); err != nil {
			return fmt.Errorf(errDecodeFailed, "whitelist", err)
		}
	}
	domains := make([]string, 0, len(list.Domains))
	for _, d := range list.Domains {
		if d = utils.CanonicalDomain(d); d != "" && !slices.Contains(domains, d) {
			domains = append(domains, d)
		}
	}
	v.mu.Lock()
	v.domains = domains
	v.mu.Unlock()
	return nil
}

// Domains returns the local list.
func (v *WhitelistView) Domains() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.domains)
}

// Contains reports whether name is in the local list.
func (v *WhitelistView) Contains(name string) bool {
	name = utils.CanonicalDomain(name)
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Contains(v.domains, name)
}

// Add allows a domain.
func (v *WhitelistView) Add(ctx context.Context, name string) error {
	return v.add(ctx, name, domain.RequestOptions{})
}

func (v *WhitelistView) add(ctx context.Context, name string, opts domain.RequestOptions) error {
	name = utils.CanonicalDomain(name)
	if !utils.IsValidFQDN(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidDomain)
	}
	out := v.api.Post(ctx, "whitelist", domain.DomainEntry{Domain: name}, opts)
	if !out.OK() {
		return failed("add "+name, out)
	}
	v.mu.Lock()
	if !slices.Contains(v.domains, name) {
		v.domains = append(v.domains, name)
	}
	v.mu.Unlock()
	v.logger.Info(map[string]any{"domain": name}, "Domain allowed")
	return nil
}

// Remove disallows a domain. The entry stays in the local list unless the
// server confirms the removal.
func (v *WhitelistView) Remove(ctx context.Context, name string) error {
	name = utils.CanonicalDomain(name)
	out := v.api.Delete(ctx, "whitelist?domain="+url.QueryEscape(name), nil, domain.RequestOptions{})
	if !out.OK() {
		return failed("remove "+name, out)
	}
	v.mu.Lock()
	v.domains = slices.DeleteFunc(v.domains, func(d string) bool { return d == name })
	v.mu.Unlock()
	v.logger.Info(map[string]any{"domain": name}, "Domain removed from allow list")
	return nil
}

// Import parses a domain list and adds every entry not already present.
// Per-domain failures are collected; the returned error combines them.
func (v *WhitelistView) Import(ctx context.Context, r io.Reader, format ListFormat) (ImportResult, error) {
	var res ImportResult
	var names []string
	var err error
	switch format {
	case FormatHosts:
		names, err = listfile.ParseHosts(r, v.logger)
	default:
		names, err = listfile.ParsePlain(r, v.logger)
	}
	if err != nil {
		return res, fmt.Errorf("parse import: %w", err)
	}

	var errs error
	for _, name := range names {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		if v.Contains(name) {
			res.Skipped = append(res.Skipped, name)
			continue
		}
		if err := v.add(ctx, name, domain.RequestOptions{SkipErrorToast: true}); err != nil {
			res.Failed = append(res.Failed, name)
			errs = multierr.Append(errs, err)
			continue
		}
		res.Added = append(res.Added, name)
	}

	if len(res.Failed) > 0 && v.notifier != nil {
		v.notifier.Warn(importToastID, fmt.Sprintf(importSummary, len(res.Added), len(res.Added)+len(res.Failed)))
	}
	return res, errs
}
