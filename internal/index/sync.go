package index

import (
	"log/slog"

	"github.com/aldric/tavle/internal/checksum"
	"github.com/aldric/tavle/internal/parser"
	"github.com/aldric/tavle/internal/storage"
)

// Sync walks the vault and brings the note index up to date: new and
// changed files are parsed and upserted, files gone from disk are
// removed from the index.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		disk[info.Path] = struct{}{}

		if checksums[info.Path] == info.Checksum {
			continue
		}

		data, err := store.Read(info.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, info, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", info.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the index.
func indexFile(db *DB, info storage.FileInfo, data []byte) error {
	doc := parser.Parse(data)
	title := doc.Title
	if title == "" {
		title = parser.TitleFor(info.Path, data)
	}
	row := NoteRow{
		Path:       info.Path,
		Title:      title,
		Checksum:   checksum.Sum(data),
		Tags:       doc.Tags,
		CreatedAt:  info.CreatedAt.Unix(),
		ModifiedAt: info.ModifiedAt.Unix(),
	}
	return db.UpsertNote(row, doc.Body, doc.Links)
}
