package authz

import (
	"log/slog"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Gate", func() {
	var (
		gate     *Gate
		registry *PolicyRegistry
	)

	workingHours := Environment{Hour: 10}
	afterHours := Environment{Hour: 20}

	ginkgo.BeforeEach(func() {
		registry = DefaultPolicyRegistry(slog.Default())
		gate = NewGate(DefaultCatalog(), registry, DefaultAbilityMap(), slog.Default())
	})

	ginkgo.Describe("Authorize", func() {
		ginkgo.It("should reject a nil principal before evaluating either model", func() {
			err := gate.Authorize(nil, []string{PermViewPatient}, Resource{}, workingHours, CombineAnd)

			gomega.Expect(err).To(gomega.MatchError(ErrUnauthenticated))
		})

		ginkgo.Context("with CombineAnd", func() {
			ginkgo.It("should require both models to allow", func() {
				doctor := &Principal{ID: "2", Role: RoleDoctor, Permissions: []string{PermViewPatient}}
				resource := Resource{Type: ResourceTypePatientRecord, ID: 1}

				err := gate.Authorize(doctor, []string{PermViewPatient}, resource, workingHours, CombineAnd)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				err = gate.Authorize(doctor, []string{PermViewPatient}, resource, afterHours, CombineAnd)
				gomega.Expect(err).To(gomega.MatchError(ErrForbidden))
			})

			ginkgo.It("should skip policy evaluation entirely when the permission check fails", func() {
				evaluations := 0
				counting := NewPolicyRegistry(slog.Default())
				counting.Register(PolicyAdminFullAccess, func(PolicyContext) (bool, error) {
					evaluations++
					return true, nil
				})
				countingGate := NewGate(DefaultCatalog(), counting, DefaultAbilityMap(), slog.Default())

				admin := &Principal{ID: "1", Role: RoleAdmin, Permissions: []string{PermViewPatient}}

				err := countingGate.Authorize(admin, []string{PermManageUsers}, Resource{}, workingHours, CombineAnd)

				gomega.Expect(err).To(gomega.MatchError(ErrForbidden))
				gomega.Expect(evaluations).To(gomega.BeZero())
			})
		})

		ginkgo.Context("with CombineOr", func() {
			ginkgo.It("should allow when only the permission check passes", func() {
				nurse := &Principal{ID: "4", Role: RoleNurse, Permissions: []string{PermViewPatient}}
				resource := Resource{Type: ResourceTypePatientRecord, ID: 1}

				// No policy is selected for a nurse on a department-less
				// record, so ABAC alone would deny.
				err := gate.Authorize(nurse, []string{PermViewPatient}, resource, workingHours, CombineOr)

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			})

			ginkgo.It("should allow when only the policies pass", func() {
				patient := &Principal{ID: "9", Role: RolePatient, Permissions: []string{PermViewOwnRecord}}
				resource := Resource{Type: ResourceTypePatientRecord, ID: 5, OwnerID: 9}

				err := gate.Authorize(patient, []string{PermViewPatient}, resource, workingHours, CombineOr)

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			})

			ginkgo.It("should deny when both models deny", func() {
				patient := &Principal{ID: "9", Role: RolePatient, Permissions: []string{PermViewOwnRecord}}
				resource := Resource{Type: ResourceTypePatientRecord, ID: 5, OwnerID: 11}

				err := gate.Authorize(patient, []string{PermViewPatient}, resource, workingHours, CombineOr)

				gomega.Expect(err).To(gomega.MatchError(ErrForbidden))
			})
		})

		ginkgo.Context("with single-model modes", func() {
			ginkgo.It("should ignore policies under CombineRBACOnly", func() {
				staff := &Principal{ID: "6", Role: RoleStaff, Permissions: []string{PermViewDischarge}}

				err := gate.Authorize(staff, []string{PermViewDischarge}, Resource{}, afterHours, CombineRBACOnly)

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			})

			ginkgo.It("should ignore permissions under CombineABACOnly", func() {
				patient := &Principal{ID: "9", Role: RolePatient}
				resource := Resource{Type: ResourceTypePatientRecord, ID: 5, OwnerID: 9}

				err := gate.Authorize(patient, []string{PermManageUsers}, resource, workingHours, CombineABACOnly)

				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			})
		})
	})

	ginkgo.Describe("Can", func() {
		ginkgo.It("should reject a nil principal", func() {
			err := gate.Can(nil, ActionView, SubjectPatient)

			gomega.Expect(err).To(gomega.MatchError(ErrUnauthenticated))
		})

		ginkgo.It("should allow abilities derived from held permissions", func() {
			nurse := &Principal{ID: "4", Role: RoleNurse, Permissions: []string{PermCreateAssessment}}

			gomega.Expect(gate.Can(nurse, ActionCreate, SubjectAssessment)).To(gomega.Succeed())
			gomega.Expect(gate.Can(nurse, ActionDelete, SubjectPatient)).To(gomega.MatchError(ErrForbidden))
		})

		ginkgo.It("should let the admin wildcard cover every subject", func() {
			admin := &Principal{ID: "1", Role: RoleAdmin}

			gomega.Expect(gate.Can(admin, ActionDelete, SubjectPatient)).To(gomega.Succeed())
			gomega.Expect(gate.Can(admin, ActionView, SubjectAuditLog)).To(gomega.Succeed())
		})
	})
})
