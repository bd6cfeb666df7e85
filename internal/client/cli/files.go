package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/pinshare/internal/client/models"
	"github.com/dmitrijs2005/pinshare/internal/client/pinning"
	"github.com/dmitrijs2005/pinshare/internal/client/services"
	"github.com/dmitrijs2005/pinshare/internal/common"
)

const timeLayout = "2006-01-02 15:04"

// Upload pins the file at path and registers it with the backend.
func (a *App) Upload(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		a.printf("Cannot open %s: %v\n", path, err)
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if fi.IsDir() {
		err := fmt.Errorf("%s is a directory", path)
		a.printf("%v\n", err)
		return err
	}

	typ := mime.TypeByExtension(filepath.Ext(path))
	if typ == "" {
		typ = "application/octet-stream"
	}

	rec, err := a.sharing.UploadFile(ctx, models.Upload{
		Name:    filepath.Base(path),
		Size:    fi.Size(),
		Type:    typ,
		Content: f,
	})
	if err != nil {
		var orphan *services.OrphanedPinError
		if errors.As(err, &orphan) {
			a.printf("Uploaded to IPFS as %s but the file could not be saved: %v\n", orphan.Hash, orphan.Err)
			return err
		}
		a.printf("Upload failed: %v\n", err)
		return err
	}

	a.printf("Uploaded %s (id %s)\n%s\n", rec.FileName, rec.FileID, rec.URL)
	return nil
}

// Files lists the signed-in user's files.
func (a *App) Files(ctx context.Context) error {
	files, err := a.sharing.GetUserFiles(ctx)
	if err != nil {
		a.printf("Could not load files: %v\n", err)
		return err
	}
	if len(files) == 0 {
		a.printf("No files yet. Use 'upload <path>' to add one.\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tHASH")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", f.FileID, f.FileName, f.FileSize, f.IPFSHash)
	}
	return tw.Flush()
}

// Delete removes a file. The unpin is best effort; its outcome is shown
// but only the backend deletion decides success.
func (a *App) Delete(ctx context.Context, id string) error {
	res, err := a.sharing.DeleteFile(ctx, models.ID(id))
	if err != nil {
		a.printf("Delete failed: %v\n", err)
		return err
	}

	if res.Lookup.Failed() {
		a.printf("warning: could not look up the file before deleting: %v\n", res.Lookup.Err)
	}
	if res.Unpin.Failed() {
		a.printf("warning: %s is still pinned: %v\n", res.Hash, res.Unpin.Err)
	}
	a.printf("File %s deleted\n", res.FileID)
	return nil
}

// Share creates a link to file id valid for hours.
func (a *App) Share(ctx context.Context, id, hours string) error {
	h, err := strconv.Atoi(hours)
	if err != nil {
		a.printf("Hours must be a whole number: %q\n", hours)
		return services.ErrInvalidHours
	}

	link, err := a.sharing.GenerateShareLink(ctx, models.ID(id), h)
	if err != nil {
		a.printf("Could not create link: %v\n", err)
		return err
	}
	a.printf("Share id: %s\nExpires: %s\n", link.ShareID, formatExpiry(link.ExpiresAt()))
	return nil
}

// Links lists the user's share links, flagging locally generated previews.
func (a *App) Links(ctx context.Context) error {
	list, err := a.sharing.ListShareLinks(ctx)
	if err != nil {
		a.printf("Could not load links: %v\n", err)
		return err
	}
	if list.Source == services.SourcePreview {
		a.printf("Share listing unavailable, showing preview links.\n")
	}
	if len(list.Links) == 0 {
		a.printf("No share links.\n")
		return nil
	}

	now := time.Now()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHARE ID\tFILE\tEXPIRES\tSTATUS")
	for _, l := range list.Links {
		status := "active"
		switch {
		case l.Preview:
			status = "preview"
		case l.Expired(now):
			status = "expired"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.ShareID, l.FileName, formatExpiry(l.ExpiresAt()), status)
	}
	return tw.Flush()
}

// Unshare deletes a share link.
func (a *App) Unshare(ctx context.Context, shareID string) error {
	if err := a.sharing.DeleteShareLink(ctx, shareID); err != nil {
		a.printf("Could not delete link: %v\n", err)
		return err
	}
	a.printf("Link %s deleted\n", shareID)
	return nil
}

// Open fetches a public share. It works without a session.
func (a *App) Open(ctx context.Context, shareID string) error {
	rec, err := a.sharing.GetSharedFile(ctx, shareID)
	if err != nil {
		if errors.Is(err, common.ErrLinkExpiredOrMissing) {
			a.printf("This link has expired or does not exist.\n")
		} else {
			a.printf("Could not open link: %v\n", err)
		}
		return err
	}

	url := rec.URL
	if url == "" && rec.IPFSHash != "" {
		url = pinning.IPFSURL(rec.IPFSHash)
	}
	a.printf("%s (%d bytes, %s)\n%s\n", rec.FileName, rec.FileSize, rec.FileType, url)
	return nil
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(timeLayout)
}
