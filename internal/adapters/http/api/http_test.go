package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/mindgauge/mindgauge/internal/adapters/http/api"
	"github.com/mindgauge/mindgauge/internal/adapters/repository"
	service "github.com/mindgauge/mindgauge/internal/app"
	"github.com/mindgauge/mindgauge/internal/domain/model"
)

// Mock implementations for testing

type mockDeps struct {
	seen map[string]bool

	recordResult model.PlayResult
	recordErr    error
	recorded     []string

	topN    []model.LeaderboardEntry
	topNErr error

	stat    model.PlayerGameStat
	statPct float64
	statErr error

	percentile float64
}

func (m *mockDeps) SeenAndRecord(ctx context.Context, id string) bool {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeps) Unrecord(ctx context.Context, id string) {
	delete(m.seen, id)
}

func (m *mockDeps) Size() int64 {
	return int64(len(m.seen))
}

func (m *mockDeps) Record(ctx context.Context, playerID, gameID string, rawScore float64) (model.PlayResult, error) {
	if m.recordErr != nil {
		return model.PlayResult{}, m.recordErr
	}
	m.recorded = append(m.recorded, playerID+"/"+gameID)
	return m.recordResult, nil
}

func (m *mockDeps) TopN(ctx context.Context, gameID string, n int) ([]model.LeaderboardEntry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDeps) PlayerStat(ctx context.Context, playerID, gameID string) (model.PlayerGameStat, float64, error) {
	if m.statErr != nil {
		return model.PlayerGameStat{}, 0, m.statErr
	}
	return m.stat, m.statPct, nil
}

func (m *mockDeps) Percentile(gameID string, rawScore float64) float64 {
	return m.percentile
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newTestServer(deps *mockDeps) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 100)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func TestServerRegister(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newTestServer(&mockDeps{})

		Convey("Then the health endpoint serves metrics", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint serves JSON", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "started")
		})
	})
}

func TestPostScore(t *testing.T) {
	Convey("Given a score endpoint", t, func() {
		deps := &mockDeps{
			recordResult: model.PlayResult{
				PlayerID:   "alice",
				GameID:     "chimp_test",
				BestScore:  15,
				TotalPlays: 1,
				Tier:       "Alien",
				Percentile: 97.72,
			},
		}
		mux := newTestServer(deps)

		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/scores", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("When a valid play is posted", func() {
			w := post(`{"player_id":"alice","game_id":"chimp_test","raw_score":15}`)

			Convey("Then it records and returns the aggregate", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var resp struct {
					Status string           `json:"status"`
					Result model.PlayResult `json:"result"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Status, ShouldEqual, "recorded")
				So(resp.Result.Tier, ShouldEqual, "Alien")
				So(resp.Result.Percentile, ShouldEqual, 97.72)
			})
		})

		Convey("When the same submission id is posted twice", func() {
			body := `{"submission_id":"sub-1","player_id":"alice","game_id":"chimp_test","raw_score":15}`
			first := post(body)
			second := post(body)

			Convey("Then only one play is recorded", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(second.Body.String(), ShouldContainSubstring, `"duplicate":true`)
				So(deps.recorded, ShouldHaveLength, 1)
			})
		})

		Convey("When the body is invalid", func() {
			Convey("Then malformed JSON is rejected", func() {
				So(post(`{not json`).Code, ShouldEqual, http.StatusBadRequest)
			})
			Convey("Then a missing game_id is rejected", func() {
				So(post(`{"player_id":"alice","raw_score":10}`).Code, ShouldEqual, http.StatusBadRequest)
			})
			Convey("Then a missing raw_score is rejected", func() {
				So(post(`{"player_id":"alice","game_id":"chimp_test"}`).Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When recording fails validation downstream", func() {
			deps.recordErr = fmt.Errorf("%w: bad play", service.ErrValidation)
			w := post(`{"submission_id":"sub-2","game_id":"chimp_test","raw_score":10}`)

			Convey("Then it maps to 400 and frees the submission id", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.seen["sub-2"], ShouldBeFalse)
			})
		})

		Convey("When recording fails internally", func() {
			deps.recordErr = fmt.Errorf("%w: shard down", service.ErrAggregation)
			w := post(`{"game_id":"chimp_test","raw_score":10}`)

			Convey("Then it maps to 500", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the method is not POST", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/scores", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGetLeaderboard(t *testing.T) {
	Convey("Given a leaderboard endpoint", t, func() {
		now := time.Now().UTC()
		deps := &mockDeps{
			topN: []model.LeaderboardEntry{
				{Rank: 1, PlayerID: "alice", BestScore: 15, Tier: "Alien", TotalPlays: 3, LastPlayedAt: now},
				{Rank: 2, PlayerID: "bob", BestScore: 12, Tier: "Chimp", TotalPlays: 1, LastPlayedAt: now},
			},
		}
		mux := newTestServer(deps)

		get := func(target string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("When the board is requested", func() {
			w := get("/api/leaderboard?game_id=chimp_test&limit=10")

			Convey("Then entries come back in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					GameID  string                   `json:"game_id"`
					Entries []model.LeaderboardEntry `json:"entries"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.GameID, ShouldEqual, "chimp_test")
				So(resp.Entries, ShouldHaveLength, 2)
				So(resp.Entries[0].PlayerID, ShouldEqual, "alice")
			})
		})

		Convey("When the limit is omitted", func() {
			So(get("/api/leaderboard?game_id=chimp_test").Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the request is invalid", func() {
			Convey("Then a missing game_id is rejected", func() {
				So(get("/api/leaderboard?limit=5").Code, ShouldEqual, http.StatusBadRequest)
			})
			Convey("Then a non-numeric limit is rejected", func() {
				So(get("/api/leaderboard?game_id=x&limit=abc").Code, ShouldEqual, http.StatusBadRequest)
			})
			Convey("Then an oversized limit is rejected", func() {
				So(get("/api/leaderboard?game_id=x&limit=1000").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the store fails", func() {
			deps.topNErr = repository.ErrClosed
			So(get("/api/leaderboard?game_id=x&limit=5").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestGetPlayerStat(t *testing.T) {
	Convey("Given a player stat endpoint", t, func() {
		deps := &mockDeps{
			stat: model.PlayerGameStat{
				PlayerID:     "alice",
				GameID:       "chimp_test",
				BestScore:    15,
				TotalPlays:   3,
				Tier:         "Alien",
				LastPlayedAt: time.Now().UTC(),
			},
			statPct: 97.72,
		}
		mux := newTestServer(deps)

		get := func(target string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("When a recorded pair is requested", func() {
			w := get("/api/players/alice/games/chimp_test")

			Convey("Then the aggregate comes back with the percentile", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"tier":"Alien"`)
				So(w.Body.String(), ShouldContainSubstring, `"percentile":97.72`)
			})
		})

		Convey("When the pair is unknown", func() {
			deps.statErr = repository.ErrNotFound
			So(get("/api/players/ghost/games/chimp_test").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path is malformed", func() {
			So(get("/api/players/alice").Code, ShouldEqual, http.StatusBadRequest)
			So(get("/api/players/alice/scores/chimp_test").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestGetPercentile(t *testing.T) {
	Convey("Given a percentile endpoint", t, func() {
		deps := &mockDeps{percentile: 84.13}
		mux := newTestServer(deps)

		get := func(target string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("When a score is queried", func() {
			w := get("/api/percentile?game_id=sequence_memory&raw_score=10.5")

			Convey("Then the percentile comes back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"percentile":84.13`)
			})
		})

		Convey("When parameters are invalid", func() {
			So(get("/api/percentile?raw_score=10").Code, ShouldEqual, http.StatusBadRequest)
			So(get("/api/percentile?game_id=x&raw_score=abc").Code, ShouldEqual, http.StatusBadRequest)
			So(get("/api/percentile?game_id=x").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
