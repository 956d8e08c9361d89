package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/healthrecord-management/internal/authz"
)

var _ = ginkgo.Describe("Resolver", func() {
	var (
		resolver *Resolver
		mockRepo *mockRepository
		tokenGen *JWTTokenGenerator
		catalog  *authz.Catalog
		ctx      context.Context
	)

	issueToken := func(userID, email string) string {
		token, err := tokenGen.GenerateAccessToken(userID, email)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return token
	}

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		tokenGen = NewJWTTokenGenerator(
			"test-access-secret-that-is-long-enough",
			"test-refresh-secret-that-is-long-enough",
			15*time.Minute, 24*time.Hour,
		)
		catalog = authz.DefaultCatalog()
		resolver = NewResolver(tokenGen, mockRepo, catalog, time.Second, slog.Default())
		ctx = context.Background()
	})

	ginkgo.Context("when the token is invalid", func() {
		ginkgo.It("should fail terminally for a garbage token", func() {
			principal, err := resolver.Resolve(ctx, "not-a-token")

			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
			gomega.Expect(principal).To(gomega.BeNil())
		})

		ginkgo.It("should fail terminally for an expired token", func() {
			expiredGen := NewJWTTokenGenerator(
				"test-access-secret-that-is-long-enough",
				"test-refresh-secret-that-is-long-enough",
				-time.Minute, 24*time.Hour,
			)
			token, err := expiredGen.GenerateAccessToken("1", "doctor@hospital.test")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).To(gomega.Equal(ErrTokenExpired))
			gomega.Expect(principal).To(gomega.BeNil())
		})
	})

	ginkgo.Context("when every lookup succeeds", func() {
		ginkgo.It("should return a fully enriched principal", func() {
			token := issueToken("1", "doctor@hospital.test")

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(principal.ID).To(gomega.Equal("1"))
			gomega.Expect(principal.Email).To(gomega.Equal("doctor@hospital.test"))
			gomega.Expect(principal.Role).To(gomega.Equal(authz.RoleDoctor))
			gomega.Expect(principal.Department).To(gomega.Equal("cardiology"))
			gomega.Expect(principal.Location).To(gomega.Equal("jakarta"))
			gomega.Expect(principal.Permissions).To(gomega.ConsistOf(authz.PermViewPatient, authz.PermEditPatient))
		})
	})

	ginkgo.Context("when the role lookup fails", func() {
		ginkgo.It("should degrade to the default role with catalog permissions", func() {
			mockRepo.roleLookupErr = errors.New("role store unreachable")
			token := issueToken("1", "doctor@hospital.test")

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(principal.Role).To(gomega.Equal(authz.DefaultRole))
			gomega.Expect(principal.Permissions).To(gomega.Equal(catalog.PermissionsForRole(authz.DefaultRole)))
			gomega.Expect(mockRepo.ensuredRoles).To(gomega.BeEmpty())
		})

		ginkgo.It("should degrade the same way when no assignment exists", func() {
			token := issueToken("99", "ghost@hospital.test")

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(principal.Role).To(gomega.Equal(authz.RolePatient))
			gomega.Expect(principal.Permissions).To(gomega.ConsistOf(authz.PermViewOwnRecord))
		})

		ginkgo.It("should create the fallback role row when no assignment exists", func() {
			token := issueToken("99", "ghost@hospital.test")

			_, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.ensuredRoles).To(gomega.ConsistOf(authz.DefaultRole))
		})
	})

	ginkgo.Context("when the permission lookup fails", func() {
		ginkgo.It("should keep the resolved role and fall back to catalog grants", func() {
			mockRepo.permLookupErr = errors.New("permission store unreachable")
			token := issueToken("1", "doctor@hospital.test")

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(principal.Role).To(gomega.Equal(authz.RoleDoctor))
			gomega.Expect(principal.Permissions).To(gomega.Equal(catalog.PermissionsForRole(authz.RoleDoctor)))
		})

		ginkgo.It("should fall back to catalog grants when the stored set is empty", func() {
			mockRepo.rolePerms[10] = nil
			token := issueToken("1", "doctor@hospital.test")

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(principal.Permissions).To(gomega.Equal(catalog.PermissionsForRole(authz.RoleDoctor)))
		})
	})

	ginkgo.Context("when the user enrichment lookup fails", func() {
		ginkgo.It("should keep the token-derived identity fields", func() {
			mockRepo.userLookupErr = errors.New("user store unreachable")
			token := issueToken("1", "doctor@hospital.test")

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(principal.ID).To(gomega.Equal("1"))
			gomega.Expect(principal.Email).To(gomega.Equal("doctor@hospital.test"))
			gomega.Expect(principal.Department).To(gomega.BeEmpty())
			gomega.Expect(principal.Role).To(gomega.Equal(authz.RoleDoctor))
		})
	})

	ginkgo.Context("when the token carries a non-numeric user id", func() {
		ginkgo.It("should skip enrichment and assign the default role", func() {
			token := issueToken("not-a-number", "someone@hospital.test")

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(principal.ID).To(gomega.Equal("not-a-number"))
			gomega.Expect(principal.Role).To(gomega.Equal(authz.DefaultRole))
			gomega.Expect(principal.Department).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("email casing writeback", func() {
		ginkgo.It("should write the token's casing when it differs only by case", func() {
			token := issueToken("1", "Doctor@Hospital.Test")

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(principal.Email).To(gomega.Equal("Doctor@Hospital.Test"))
			gomega.Expect(mockRepo.emailWrites[1]).To(gomega.Equal("Doctor@Hospital.Test"))
		})

		ginkgo.It("should not write when the stored casing already matches", func() {
			token := issueToken("1", "doctor@hospital.test")

			_, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.emailWrites).To(gomega.BeEmpty())
		})

		ginkgo.It("should not write when the addresses differ beyond casing", func() {
			token := issueToken("1", "other@hospital.test")

			_, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(mockRepo.emailWrites).To(gomega.BeEmpty())
		})

		ginkgo.It("should resolve successfully even when the writeback fails", func() {
			mockRepo.emailWriteErr = errors.New("write failed")
			token := issueToken("1", "Doctor@Hospital.Test")

			principal, err := resolver.Resolve(ctx, token)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(principal.Role).To(gomega.Equal(authz.RoleDoctor))
		})
	})
})
