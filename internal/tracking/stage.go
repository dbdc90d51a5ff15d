package tracking

import (
	"strings"

	"github.com/BearBump/TrackNotify/internal/models"
)

// StageClass is the coarse lifecycle bucket of a parcel.
type StageClass int

const (
	StageUnknown StageClass = iota
	StageRegistered
	StageInTransit
	// StageReadyForPickup also covers out-for-delivery.
	StageReadyForPickup
	StageDelivered
	StageAlert
)

func (c StageClass) String() string {
	switch c {
	case StageRegistered:
		return "Registered"
	case StageInTransit:
		return "InTransit"
	case StageReadyForPickup:
		return "ReadyForPickup"
	case StageDelivered:
		return "Delivered"
	case StageAlert:
		return "Alert"
	default:
		return "Unknown"
	}
}

// Registered-stage descriptions. Integer 0 is ambiguous and needs the sub-stage.
const (
	descAwaitingScan     = "Registered (Waiting for Carrier Scan)"
	descSystemProcessing = "Registered (System Processing)"
)

type stageEntry struct {
	description string
	class       StageClass
}

// stageTable maps both shapes of provider stage codes. Integer 0 is resolved
// in lookupStage because its description depends on the sub-stage.
var stageTable = map[models.StageCode]stageEntry{
	models.IntStage(0):  {descSystemProcessing, StageRegistered},
	models.IntStage(10): {"In Transit", StageInTransit},
	models.IntStage(30): {"Ready for Pickup", StageReadyForPickup},
	models.IntStage(40): {"Delivered", StageDelivered},
	models.IntStage(50): {"Exception / Alert", StageAlert},

	models.StringStage("NotFound"):           {descAwaitingScan, StageRegistered},
	models.StringStage("InfoReceived"):       {"Registered (Info Received)", StageRegistered},
	models.StringStage("InTransit"):          {"In Transit", StageInTransit},
	models.StringStage("Expired"):            {"Tracking Expired", StageAlert},
	models.StringStage("AvailableForPickup"): {"Ready for Pickup", StageReadyForPickup},
	models.StringStage("OutForDelivery"):     {"Out for Delivery", StageReadyForPickup},
	models.StringStage("DeliveryFailure"):    {"Delivery Failure", StageAlert},
	models.StringStage("Delivered"):          {"Delivered", StageDelivered},
	models.StringStage("Exception"):          {"Exception / Alert", StageAlert},
}

func lookupStage(stage models.StageCode, subStage string) (stageEntry, bool) {
	e, ok := stageTable[stage]
	if !ok {
		return stageEntry{}, false
	}
	if n, isInt := stage.Int(); isInt && n == 0 && strings.HasPrefix(subStage, "NotFound") {
		e.description = descAwaitingScan
	}
	return e, true
}

// Classify maps a provider stage to its StageClass. Unknown codes yield StageUnknown.
func Classify(stage models.StageCode, subStage string) StageClass {
	e, ok := lookupStage(stage, subStage)
	if !ok {
		return StageUnknown
	}
	return e.class
}
