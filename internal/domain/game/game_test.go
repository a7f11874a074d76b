package game

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		game    Game
		wantErr bool
	}{
		{"valid", Game{ID: 1, Title: "Super Mario 64"}, false},
		{"zero id", Game{ID: 0, Title: "x"}, true},
		{"negative id", Game{ID: -3, Title: "x"}, true},
		{"blank title", Game{ID: 7, Title: "   "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.game.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidRecord) {
					t.Fatalf("expected ErrInvalidRecord, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDevelopersPublishers(t *testing.T) {
	g := Game{ID: 1, Title: "Metroid Dread", Companies: []Company{
		{Name: "MercurySteam", Developer: true},
		{Name: "Nintendo", Publisher: true},
		{Name: "Nintendo EPD", Developer: true, Publisher: true},
	}}

	devs := g.Developers()
	if len(devs) != 2 || devs[0] != "MercurySteam" || devs[1] != "Nintendo EPD" {
		t.Errorf("Developers() = %v", devs)
	}
	pubs := g.Publishers()
	if len(pubs) != 2 || pubs[0] != "Nintendo" || pubs[1] != "Nintendo EPD" {
		t.Errorf("Publishers() = %v", pubs)
	}
}

func TestRewriteImageURL(t *testing.T) {
	tests := []struct {
		raw, size, want string
	}{
		{"//images.igdb.com/igdb/image/upload/t_thumb/co1r7f.jpg", "",
			"https://images.igdb.com/igdb/image/upload/t_1080p/co1r7f.jpg"},
		{"//images.igdb.com/igdb/image/upload/t_thumb/co1r7f.jpg", "t_cover_big",
			"https://images.igdb.com/igdb/image/upload/t_cover_big/co1r7f.jpg"},
		{"http://images.igdb.com/igdb/image/upload/t_thumb/a.png", "",
			"https://images.igdb.com/igdb/image/upload/t_1080p/a.png"},
		{"https://cdn.example.com/a.png", "", "https://cdn.example.com/a.png"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := RewriteImageURL(tt.raw, tt.size); got != tt.want {
			t.Errorf("RewriteImageURL(%q, %q) = %q, want %q", tt.raw, tt.size, got, tt.want)
		}
	}
}

func TestIDs(t *testing.T) {
	ids := IDs([]Game{{ID: 3}, {ID: 1}})
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 1 {
		t.Errorf("IDs() = %v", ids)
	}
}
