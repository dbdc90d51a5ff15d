package render

import (
	"testing"

	"github.com/BearBump/TrackNotify/internal/tracking"
	"github.com/stretchr/testify/require"
)

func TestEmoji(t *testing.T) {
	require.Equal(t, "📮", Emoji(tracking.StageRegistered))
	require.Equal(t, "🚚", Emoji(tracking.StageInTransit))
	require.Equal(t, "📦", Emoji(tracking.StageReadyForPickup))
	require.Equal(t, "✅", Emoji(tracking.StageDelivered))
	require.Equal(t, "⚠️", Emoji(tracking.StageAlert))
	require.Equal(t, "🚚", Emoji(tracking.StageUnknown))
}

func TestParcelAlert(t *testing.T) {
	got := ParcelAlert(ParcelUpdate{
		OwnerHandle:    "1234",
		TrackingNumber: "ED123ABC",
		Status:         tracking.CanonicalStatus{DisplayText: "Arrived at Hub, Bangkok", Class: tracking.StageInTransit},
	})
	require.Equal(t, "🚚 **Update for <@1234>!**\nTracking: `ED123ABC`\nStatus: **Arrived at Hub, Bangkok**", got)
}

func TestDigest(t *testing.T) {
	require.Empty(t, Digest(nil, false))

	lines := []DigestLine{
		{TrackingNumber: "A1", Status: tracking.CanonicalStatus{DisplayText: "In Transit", Class: tracking.StageInTransit}},
		{TrackingNumber: "B2", Status: tracking.CanonicalStatus{DisplayText: "Delivered", Class: tracking.StageDelivered}},
	}
	require.Equal(t,
		"**🌅 Daily Parcel Summary**\n🚚 `A1` : In Transit\n✅ `B2` : Delivered",
		Digest(lines, false))
	require.Equal(t,
		"**🌅 Daily Parcel Summary**\n🚚 `A1` : In Transit\n✅ `B2` : Delivered\n\n🧹 **Auto-Cleaning:** Delivered parcels have been removed.",
		Digest(lines, true))
}
