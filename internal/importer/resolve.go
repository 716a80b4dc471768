package importer

import (
	"fmt"
	"strings"

	"chatdb-go/internal/archive"
	"chatdb-go/internal/export"
	"chatdb-go/internal/model"
)

// resolveAsset matches an asset pointer against the archive and builds the
// row to persist. The first entry whose name contains the bare asset id
// wins. A pointer with no matching entry still produces a row — empty
// payload, name and MIME type — with a warning; only an unreadable entry
// is an error.
func (s *ImportService) resolveAsset(pointer *export.AssetPointer, messageID string, order int) (*model.Asset, error) {
	assetID := export.AssetID(pointer.AssetPointer)

	payload, fileName, mimeType, err := s.findArchiveEntry(assetID)
	if err != nil {
		return nil, fmt.Errorf("resolving asset %s: %w", assetID, err)
	}
	if fileName == "" {
		s.logger.Warn("asset not found in archive", "pointer", pointer.AssetPointer)
	}

	var metadata *string
	if len(pointer.Metadata) > 0 {
		m := string(pointer.Metadata)
		metadata = &m
	}

	return &model.Asset{
		ID:           assetID,
		MessageID:    messageID,
		AssetPointer: pointer.AssetPointer,
		ContentType:  pointer.ContentType,
		SizeBytes:    pointer.SizeBytes,
		Width:        pointer.Width,
		Height:       pointer.Height,
		Metadata:     metadata,
		AssetOrder:   order,
		FileContent:  payload,
		FileName:     fileName,
		MimeType:     mimeType,
	}, nil
}

// findArchiveEntry scans entries in index order for the first name
// containing assetID. A linear scan is fine at personal-export sizes.
func (s *ImportService) findArchiveEntry(assetID string) ([]byte, string, string, error) {
	for i, name := range s.archive.Entries() {
		if !strings.Contains(name, assetID) {
			continue
		}
		name, payload, err := s.archive.ReadEntryAt(i)
		if err != nil {
			return nil, "", "", err
		}
		return payload, name, archive.MIMEFromName(name), nil
	}
	return nil, "", "", nil
}
