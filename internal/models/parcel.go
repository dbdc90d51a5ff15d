package models

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// StatusDelivered is the terminal last_status value. Poll runs skip parcels holding it.
const StatusDelivered = "Delivered"

// Parcel is one row of the parcels table.
type Parcel struct {
	ID             uint64 `json:"id"`
	TrackingNumber string `json:"tracking_number"`
	LastStatus     string `json:"last_status"`
	OwnerHandle    string `json:"discord_user_id"`
}

// UnmarshalJSON accepts discord_user_id as a string or a number; bigint
// columns come back from PostgREST as JSON numbers. Digits are kept verbatim.
func (p *Parcel) UnmarshalJSON(b []byte) error {
	type plain Parcel
	var raw struct {
		plain
		OwnerHandle json.RawMessage `json:"discord_user_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	owner, err := decodeOwnerHandle(raw.OwnerHandle)
	if err != nil {
		return err
	}
	*p = Parcel(raw.plain)
	p.OwnerHandle = owner
	return nil
}

func decodeOwnerHandle(b json.RawMessage) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", errors.Wrap(err, "discord_user_id")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", errors.Wrap(err, "discord_user_id")
	}
	return n.String(), nil
}

// ParcelFilter narrows ListParcels. The zero value selects every parcel.
type ParcelFilter struct {
	ExcludeStatus string
}

// WatchedSymbol is one row of the stocks table.
type WatchedSymbol struct {
	Symbol      string  `json:"symbol"`
	TargetPrice float64 `json:"target_price"`
	Bucket      string  `json:"bucket"`
}

// Quote is a market snapshot. Nil fields mean the provider had no value.
type Quote struct {
	Symbol        string   `json:"symbol"`
	LastPrice     *float64 `json:"last_price,omitempty"`
	PreviousClose *float64 `json:"previous_close,omitempty"`
}
