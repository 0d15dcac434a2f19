package auth_test

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crosswalk.app/api/internal/auth"
)

var _ = Describe("TokenIssuer", func() {
	var issuer *auth.TokenIssuer

	BeforeEach(func() {
		var err error
		issuer, err = auth.NewTokenIssuer("test-secret", 0)
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires a secret", func() {
		_, err := auth.NewTokenIssuer("", time.Hour)
		Expect(err).To(HaveOccurred())
	})

	It("round-trips the user id with a 30 day expiry", func() {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		fixed := issuer.WithClock(func() time.Time { return now })

		token, expiresAt, err := fixed.Issue(1234567890123)
		Expect(err).NotTo(HaveOccurred())
		Expect(expiresAt).To(Equal(now.Add(30 * 24 * time.Hour)))

		userID, err := fixed.Parse(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(userID).To(Equal(int64(1234567890123)))
	})

	It("rejects expired tokens", func() {
		issued := time.Now().Add(-31 * 24 * time.Hour)
		token, _, err := issuer.WithClock(func() time.Time { return issued }).Issue(7)
		Expect(err).NotTo(HaveOccurred())

		_, err = issuer.Parse(token)
		Expect(errors.Is(err, auth.ErrInvalidToken)).To(BeTrue())
	})

	It("rejects tokens signed with another secret", func() {
		other, err := auth.NewTokenIssuer("other-secret", time.Hour)
		Expect(err).NotTo(HaveOccurred())
		token, _, err := other.Issue(7)
		Expect(err).NotTo(HaveOccurred())

		_, err = issuer.Parse(token)
		Expect(errors.Is(err, auth.ErrInvalidToken)).To(BeTrue())
	})

	It("rejects a non-numeric subject", func() {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "not-a-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		signed, err := token.SignedString([]byte("test-secret"))
		Expect(err).NotTo(HaveOccurred())

		_, err = issuer.Parse(signed)
		Expect(errors.Is(err, auth.ErrInvalidToken)).To(BeTrue())
	})

	It("rejects garbage", func() {
		_, err := issuer.Parse("not.a.jwt")
		Expect(errors.Is(err, auth.ErrInvalidToken)).To(BeTrue())
	})
})

var _ = Describe("usernames", func() {
	It("generates valid handles", func() {
		for range 50 {
			name := auth.GenerateUsername()
			Expect(len(name)).To(BeNumerically("<=", 15))
			Expect(name).To(ContainSubstring("-"))
			Expect(auth.ValidUsername(name)).To(BeTrue())
		}
	})

	DescribeTable("ValidUsername",
		func(name string, want bool) {
			Expect(auth.ValidUsername(name)).To(Equal(want))
		},
		Entry("simple", "walker_42", true),
		Entry("dashes", "sunny-otter", true),
		Entry("too short", "a", false),
		Entry("too long", "abcdefghijklmnopqrstu", false),
		Entry("spaces", "two words", false),
		Entry("emoji", "hi👋", false),
		Entry("empty", "", false),
	)
})
