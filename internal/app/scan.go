package app

import (
	"context"
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/oshokin/tunestash/internal/config"
	"github.com/oshokin/tunestash/internal/logger"
	"github.com/oshokin/tunestash/internal/service/cache"
)

// ExecuteScanCommand prints the songs available offline.
func ExecuteScanCommand(ctx context.Context, cfg *config.Config, out io.Writer, asJSON bool) {
	service, err := newService(cfg, nil)
	if err != nil {
		logger.Fatalf(ctx, "Failed to start: %v", err)
	}

	defer service.Close()

	items, err := service.Scan(ctx)
	if err != nil {
		logger.Fatalf(ctx, "Failed to scan '%s': %v", cfg.StoragePath, err)
	}

	if err = printLibrary(out, items, asJSON); err != nil {
		logger.Fatalf(ctx, "Failed to print library: %v", err)
	}

	logger.Infof(ctx, "Found %d songs in '%s'", len(items), service.StorageRoot())
}

func printLibrary(out io.Writer, items []cache.LibraryItem, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(items)
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Platform", "Artist", "Album", "Title", "Format", "Lyrics", "Cover", "Path"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, item := range items {
		table.Append([]string{
			item.Platform, item.Artist, item.Album, item.Name, item.Format,
			yesNo(item.HasLyrics), yesNo(item.HasCover), item.Path,
		})
	}

	table.Render()

	return nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}

	return "no"
}
