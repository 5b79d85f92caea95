package reconcile

import (
	"time"

	"mytvlog/internal/catalog"
	"mytvlog/internal/edcb"
)

// EntriesFromRecorder converts recorder listings into import entries. The
// recorder reports drive-local paths; prefixing the share server turns them
// into //server/root/rest paths. Listings without a file are skipped.
func EntriesFromRecorder(infos []edcb.RecInfo, smbServer string, createdAt time.Time) []ImportEntry {
	entries := make([]ImportEntry, 0, len(infos))
	for _, info := range infos {
		if info.RecFilePath == "" {
			continue
		}
		entries = append(entries, ImportEntry{
			Program: catalog.ProgramDescriptor{
				EventID:   info.EventID,
				ServiceID: info.ServiceID,
				Name:      info.Title,
				StartTime: info.StartTimeEPG,
				Duration:  info.DurationSec,
			},
			FilePath:  "//" + smbServer + info.RecFilePath,
			CreatedAt: createdAt,
		})
	}
	return entries
}
