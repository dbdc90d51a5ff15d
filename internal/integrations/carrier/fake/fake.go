package fake

import (
	"context"
	"hash/fnv"

	"github.com/BearBump/TrackNotify/internal/models"
)

// FakeClient answers without network access, for local runs and demos.
// The stage is derived from a hash of the number, so results are stable
// across runs and roughly a fifth of numbers come back delivered.
type FakeClient struct{}

func New() *FakeClient { return &FakeClient{} }

var fakeStages = []models.StageCode{
	models.IntStage(40),
	models.IntStage(10),
	models.StringStage("InTransit"),
	models.StringStage("AvailableForPickup"),
	models.StringStage("InfoReceived"),
}

func (f *FakeClient) GetTrackInfo(ctx context.Context, numbers []string) ([]models.ProviderStatusRecord, error) {
	out := make([]models.ProviderStatusRecord, 0, len(numbers))
	for _, n := range numbers {
		h := fnv.New32a()
		_, _ = h.Write([]byte(n))
		v := h.Sum32()

		out = append(out, models.ProviderStatusRecord{
			Number:      n,
			Stage:       fakeStages[v%uint32(len(fakeStages))],
			Description: "fake carrier update",
		})
	}
	return out, nil
}
