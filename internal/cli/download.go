package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/loadgate/internal/config"
	"github.com/dmitrijs2005/loadgate/internal/variants"
)

// Variants lists the variants the manifest currently offers, marking the
// default one.
func (a *App) Variants(ctx context.Context) error {
	names, err := a.variants.List(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Could not fetch the variant list: %s\n", err)
		return err
	}
	for _, name := range names {
		if name == config.DefaultVariant {
			fmt.Fprintf(a.out, "  %s (default)\n", name)
		} else {
			fmt.Fprintf(a.out, "  %s\n", name)
		}
	}
	return nil
}

// Download fetches the named variant (default when empty), printing
// progress as it goes.
func (a *App) Download(ctx context.Context, variant string) error {
	if variant == "" {
		variant = config.DefaultVariant
	}
	variant = strings.ToUpper(variant)

	fmt.Fprintf(a.out, "Downloading %s...\n", variant)
	var lastPct int64 = -1
	paths, err := a.variants.Download(ctx, variant, func(written, total int64) {
		if total <= 0 {
			return
		}
		pct := written * 100 / total
		if pct != lastPct && pct%10 == 0 {
			lastPct = pct
			fmt.Fprintf(a.out, "  %d%%\n", pct)
		}
	})
	if err != nil {
		switch {
		case errors.Is(err, variants.ErrNotAuthenticated):
			fmt.Fprintln(a.out, "Downloads need an authenticated session. Use 'login' or 'restore' first.")
		case errors.Is(err, variants.ErrUnknownVariant):
			fmt.Fprintf(a.out, "Unknown variant %q. Use 'variants' to see what is available.\n", variant)
		default:
			fmt.Fprintf(a.out, "Download failed: %s\n", err)
		}
		return err
	}

	for _, p := range paths {
		fmt.Fprintf(a.out, "  saved %s\n", p)
	}
	return nil
}
