package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavelhq/gavel/internal/adapters/auth"
	"github.com/smartystreets/goconvey/convey"
)

func TestVerifier(t *testing.T) {
	convey.Convey("Given a verifier", t, func() {
		v, err := auth.NewVerifier("test-secret")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("an empty secret is rejected", func() {
			_, err := auth.NewVerifier("")
			convey.So(err, convey.ShouldEqual, auth.ErrEmptySecret)
		})

		convey.Convey("a generated token round-trips its claims", func() {
			token, err := v.Generate("team-7", false)
			convey.So(err, convey.ShouldBeNil)

			claims, err := v.Validate(token)
			convey.So(err, convey.ShouldBeNil)
			convey.So(claims.TeamID, convey.ShouldEqual, "team-7")
			convey.So(claims.Admin, convey.ShouldBeFalse)
		})

		convey.Convey("a token signed with a different secret is rejected", func() {
			other, _ := auth.NewVerifier("other-secret")
			token, _ := other.Generate("team-7", false)

			_, err := v.Validate(token)
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("an expired token is rejected", func() {
			short, _ := auth.NewVerifier("test-secret", auth.WithTTL(time.Millisecond))
			token, _ := short.Generate("team-7", false)
			time.Sleep(5 * time.Millisecond)

			_, err := v.Validate(token)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMiddleware(t *testing.T) {
	convey.Convey("Given the auth middleware wrapping a handler", t, func() {
		v, _ := auth.NewVerifier("test-secret")

		var seenTeam string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenTeam = auth.TeamID(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		convey.Convey("a valid bearer token passes through with claims", func() {
			token, _ := v.Generate("team-3", false)
			req := httptest.NewRequest(http.MethodPost, "/bids", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			v.Middleware(inner).ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(seenTeam, convey.ShouldEqual, "team-3")
		})

		convey.Convey("a missing token is unauthorized", func() {
			req := httptest.NewRequest(http.MethodPost, "/bids", nil)
			rec := httptest.NewRecorder()

			v.Middleware(inner).ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusUnauthorized)
		})

		convey.Convey("a non-admin token cannot reach admin handlers", func() {
			token, _ := v.Generate("team-3", false)
			req := httptest.NewRequest(http.MethodPost, "/admin/session/start", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			v.AdminMiddleware(inner).ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusForbidden)
		})

		convey.Convey("an admin token reaches admin handlers", func() {
			token, _ := v.Generate("ops", true)
			req := httptest.NewRequest(http.MethodPost, "/admin/session/start", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			v.AdminMiddleware(inner).ServeHTTP(rec, req)
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}
