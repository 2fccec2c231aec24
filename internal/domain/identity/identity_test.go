package identity_test

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/relisten/internal/domain/identity"
	"github.com/okian/relisten/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolver(t *testing.T) {
	earlier := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given a resolver with verified observations", t, func() {
		r := identity.New()
		r.Observe(model.EntityArtist, "Radiohead", "artist-abc", earlier)

		Convey("When resolving an observed name", func() {
			id := r.Resolve(model.EntityArtist, "Radiohead")

			Convey("Then the verified identifier is returned", func() {
				So(id.ID, ShouldEqual, "artist-abc")
				So(id.Provenance, ShouldEqual, model.ProvenanceVerified)
			})
		})

		Convey("When the name differs only in case and whitespace", func() {
			id := r.Resolve(model.EntityArtist, "  RADIOHEAD ")

			Convey("Then normalization still finds the verified identifier", func() {
				So(id.ID, ShouldEqual, "artist-abc")
			})
		})

		Convey("When a conflicting verified id is observed more recently", func() {
			r.Observe(model.EntityArtist, "Radiohead", "artist-xyz", later)
			id := r.Resolve(model.EntityArtist, "Radiohead")

			Convey("Then the most recently observed id wins and the conflict is counted", func() {
				So(id.ID, ShouldEqual, "artist-xyz")
				So(r.Conflicts(), ShouldEqual, 1)
			})
		})

		Convey("When a conflicting verified id is observed with an older stamp", func() {
			r.Observe(model.EntityArtist, "Radiohead", "artist-old", earlier.Add(-time.Hour))
			id := r.Resolve(model.EntityArtist, "Radiohead")

			Convey("Then the existing id is kept but the conflict is still counted", func() {
				So(id.ID, ShouldEqual, "artist-abc")
				So(r.Conflicts(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given no verified identifier for a name", t, func() {
		r := identity.New()

		Convey("When resolving the same name twice", func() {
			first := r.Resolve(model.EntityAlbum, "In Rainbows")
			second := r.Resolve(model.EntityAlbum, "In Rainbows")

			Convey("Then the derived id is deterministic", func() {
				So(first.Provenance, ShouldEqual, model.ProvenanceDerived)
				So(second.ID, ShouldEqual, first.ID)
			})
		})

		Convey("When resolving the same name for different entity types", func() {
			artist := r.Resolve(model.EntityArtist, "Low")
			album := r.Resolve(model.EntityAlbum, "Low")

			Convey("Then the derived ids never collide across types", func() {
				So(artist.ID, ShouldNotEqual, album.ID)
				So(strings.HasPrefix(artist.ID, "drv-artist-"), ShouldBeTrue)
				So(strings.HasPrefix(album.ID, "drv-album-"), ShouldBeTrue)
			})
		})

		Convey("When the name is blank", func() {
			a := r.Resolve(model.EntityArtist, "")
			b := r.Resolve(model.EntityArtist, "   ")
			known := r.Resolve(model.EntityArtist, "unknown")

			Convey("Then all null-named entities collapse to the unknown sentinel", func() {
				So(a.ID, ShouldEqual, b.ID)
				So(a.ID, ShouldEqual, known.ID)
			})
		})

		Convey("When a verified id becomes known after a derived resolution", func() {
			derived := r.Resolve(model.EntityArtist, "Portishead")
			r.Observe(model.EntityArtist, "Portishead", "artist-p", earlier)
			resolved := r.Resolve(model.EntityArtist, "Portishead")

			Convey("Then subsequent resolutions prefer the verified id", func() {
				So(derived.Provenance, ShouldEqual, model.ProvenanceDerived)
				So(resolved.ID, ShouldEqual, "artist-p")
				So(resolved.Provenance, ShouldEqual, model.ProvenanceVerified)
			})
		})
	})

	Convey("Given one observing goroutine per entity type", t, func() {
		r := identity.New()
		types := []model.EntityType{model.EntityTrack, model.EntityArtist, model.EntityAlbum}
		const rounds = 2000

		var wg sync.WaitGroup
		wg.Add(len(types))
		for _, entityType := range types {
			go func(et model.EntityType) {
				defer wg.Done()
				// Alternating ids for one name: every other observation
				// disagrees with the stored entry.
				for i := 0; i < rounds; i++ {
					r.Observe(et, "Shared Name", "id-"+strconv.Itoa(i%2), earlier)
				}
			}(entityType)
		}
		wg.Wait()

		Convey("Then conflicting observations are counted without interference", func() {
			So(r.Conflicts(), ShouldEqual, len(types)*rounds/2)
			for _, entityType := range types {
				So(r.Resolve(entityType, "Shared Name").ID, ShouldEqual, "id-0")
			}
		})
	})

	Convey("Given a custom hash length", t, func() {
		r := identity.New(identity.WithHashLength(32))
		id := r.Resolve(model.EntityTrack, "Weird Fishes")

		Convey("Then the derived suffix has the configured length", func() {
			So(id.ID, ShouldStartWith, "drv-track-")
			So(len(id.ID)-len("drv-track-"), ShouldEqual, 32)
		})
	})
}
