package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/omarespejel/starknet-unity-clicker-demo/internal/config"
	"github.com/omarespejel/starknet-unity-clicker-demo/internal/model"
)

const playerStateQuery = `
query GetPlayerState($player: String!) {
  models(where: { player: { eq: $player } }) {
    edges {
      node {
        ... on ClickerScore {
          points
          total_clicks
          click_power
          last_click_time
        }
      }
    }
  }
}`

// StateService reads player statistics from the Torii indexer. Any transport
// or decode failure falls back to the zero-value state instead of surfacing
// an error: a player the indexer has not seen yet and an unreachable indexer
// look the same to callers.
type StateService struct {
	toriiURL string
	client   *http.Client
}

func NewStateService(toriiURL string) *StateService {
	return &StateService{
		toriiURL: toriiURL,
		client:   &http.Client{Timeout: config.ToriiRequestTimeout},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type playerStateResponse struct {
	Data struct {
		Models struct {
			Edges []struct {
				Node model.PlayerState `json:"node"`
			} `json:"edges"`
		} `json:"models"`
	} `json:"data"`
}

// GetPlayerState returns the most recent known statistics for a player, or
// the zero-value default.
func (s *StateService) GetPlayerState(ctx context.Context, playerAddress string) model.PlayerState {
	state, err := s.query(ctx, playerAddress)
	if err != nil {
		log.Warn().Err(err).Str("player", playerAddress).Msg("torii query failed, serving zero state")
		return model.ZeroPlayerState()
	}
	if state == nil {
		return model.ZeroPlayerState()
	}
	return *state
}

func (s *StateService) query(ctx context.Context, playerAddress string) (*model.PlayerState, error) {
	body, err := json.Marshal(graphqlRequest{
		Query:     playerStateQuery,
		Variables: map[string]any{"player": playerAddress},
	})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.toriiURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("torii request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("torii status %d", resp.StatusCode)
	}

	var decoded playerStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	edges := decoded.Data.Models.Edges
	if len(edges) == 0 {
		return nil, nil
	}

	state := edges[0].Node
	if state.Points == "" {
		state.Points = "0"
	}
	if state.ClickPower == 0 {
		state.ClickPower = 1
	}
	return &state, nil
}
