// Package render builds the chat messages sent by the jobs.
package render

import (
	"fmt"
	"strings"

	"github.com/BearBump/TrackNotify/internal/tracking"
)

const (
	DigestHeader  = "**🌅 Daily Parcel Summary**"
	CleanupNotice = "🧹 **Auto-Cleaning:** Delivered parcels have been removed."
)

// Emoji returns the icon for a stage class.
func Emoji(c tracking.StageClass) string {
	switch c {
	case tracking.StageRegistered:
		return "📮"
	case tracking.StageReadyForPickup:
		return "📦"
	case tracking.StageDelivered:
		return "✅"
	case tracking.StageAlert:
		return "⚠️"
	default:
		return "🚚"
	}
}

// Mention renders a Discord user mention.
func Mention(ownerHandle string) string {
	return "<@" + ownerHandle + ">"
}

type ParcelUpdate struct {
	OwnerHandle    string
	TrackingNumber string
	Status         tracking.CanonicalStatus
}

func ParcelAlert(u ParcelUpdate) string {
	return fmt.Sprintf("%s **Update for %s!**\nTracking: `%s`\nStatus: **%s**",
		Emoji(u.Status.Class), Mention(u.OwnerHandle), u.TrackingNumber, u.Status.DisplayText)
}

type DigestLine struct {
	TrackingNumber string
	Status         tracking.CanonicalStatus
}

// Digest renders the daily summary. It returns "" when there are no lines.
func Digest(lines []DigestLine, cleaned bool) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(DigestHeader)
	for _, l := range lines {
		fmt.Fprintf(&b, "\n%s `%s` : %s", Emoji(l.Status.Class), l.TrackingNumber, l.Status.DisplayText)
	}
	if cleaned {
		b.WriteString("\n\n")
		b.WriteString(CleanupNotice)
	}
	return b.String()
}
