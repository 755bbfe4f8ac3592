package handler

import (
	"encoding/json"

	apperrors "github.com/omarespejel/starknet-unity-clicker-demo/internal/errors"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
)

// parsePresentedKey accepts both credential forms the API allows: a full
// session key object, or a bare player address string. The bare form carries
// no secret, so it can never pass validation; it still parses so the gateway
// rejects it as unauthorized rather than malformed.
func parsePresentedKey(raw json.RawMessage) (model.PresentedKey, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return model.PresentedKey{}, apperrors.MissingRequired("sessionKey")
	}

	var player string
	if err := json.Unmarshal(raw, &player); err == nil {
		return model.PresentedKey{PlayerAddress: player}, nil
	}

	var presented model.PresentedKey
	if err := json.Unmarshal(raw, &presented); err != nil {
		return model.PresentedKey{}, apperrors.InvalidInput("sessionKey", "must be an object or a player address string")
	}
	return presented, nil
}
