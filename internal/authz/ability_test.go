package authz

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("AbilityMap", func() {
	var abilities *AbilityMap

	ginkgo.BeforeEach(func() {
		abilities = DefaultAbilityMap()
	})

	ginkgo.Describe("Lookup", func() {
		ginkgo.It("should map catalog permissions onto action/subject pairs", func() {
			ability, ok := abilities.Lookup(PermEditPatient)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(ability).To(gomega.Equal(Ability{ActionUpdate, SubjectPatient}))

			ability, ok = abilities.Lookup(PermManageUsers)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(ability).To(gomega.Equal(Ability{ActionManage, SubjectUser}))
		})

		ginkgo.It("should not resolve unknown permission strings", func() {
			_, ok := abilities.Lookup("launch:missiles")
			gomega.Expect(ok).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("For", func() {
		ginkgo.It("should grant admin the manage-all wildcard", func() {
			admin := &Principal{ID: "1", Role: RoleAdmin}

			set := abilities.For(admin)

			gomega.Expect(set.Can(ActionDelete, SubjectPatient)).To(gomega.BeTrue())
			gomega.Expect(set.Can(ActionCreate, SubjectDischarge)).To(gomega.BeTrue())
			gomega.Expect(set.Can(ActionManage, SubjectUser)).To(gomega.BeTrue())
		})

		ginkgo.It("should give doctor the view-patient extra even without the matching permission", func() {
			doctor := &Principal{ID: "2", Role: RoleDoctor, Permissions: []string{PermCreateAssessment}}

			set := abilities.For(doctor)

			gomega.Expect(set.Can(ActionView, SubjectPatient)).To(gomega.BeTrue())
			gomega.Expect(set.Can(ActionCreate, SubjectAssessment)).To(gomega.BeTrue())
			gomega.Expect(set.Can(ActionDelete, SubjectPatient)).To(gomega.BeFalse())
		})

		ginkgo.It("should give patient the view-patient extra on top of the own-record mapping", func() {
			patient := &Principal{ID: "3", Role: RolePatient, Permissions: []string{PermViewOwnRecord}}

			set := abilities.For(patient)

			gomega.Expect(set.Can(ActionView, SubjectPatient)).To(gomega.BeTrue())
			gomega.Expect(set.Can(ActionUpdate, SubjectPatient)).To(gomega.BeFalse())
		})

		ginkgo.It("should derive nurse abilities from held permissions only", func() {
			catalog := DefaultCatalog()
			nurse := &Principal{ID: "4", Role: RoleNurse, Permissions: catalog.PermissionsForRole(RoleNurse)}

			set := abilities.For(nurse)

			gomega.Expect(set.Can(ActionView, SubjectPatient)).To(gomega.BeTrue())
			gomega.Expect(set.Can(ActionUpdate, SubjectAssessment)).To(gomega.BeTrue())
			gomega.Expect(set.Can(ActionCreate, SubjectPatient)).To(gomega.BeFalse())
			gomega.Expect(set.Can(ActionView, SubjectAuditLog)).To(gomega.BeFalse())
		})

		ginkgo.It("should skip permissions outside the mapping table", func() {
			staff := &Principal{ID: "5", Role: RoleStaff, Permissions: []string{"view:payroll", PermViewDischarge}}

			set := abilities.For(staff)

			gomega.Expect(set.Can(ActionView, SubjectDischarge)).To(gomega.BeTrue())
			gomega.Expect(set.Abilities()).To(gomega.HaveLen(1))
		})

		ginkgo.It("should return an empty set for a nil principal", func() {
			set := abilities.For(nil)

			gomega.Expect(set.Abilities()).To(gomega.BeEmpty())
			gomega.Expect(set.Can(ActionView, SubjectPatient)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("derivation invariant", func() {
		ginkgo.It("should only grant abilities backed by a catalog permission or a role extra", func() {
			catalog := DefaultCatalog()
			extras := map[RoleName][]Ability{
				RoleAdmin:   {{ActionManage, SubjectAll}},
				RoleDoctor:  {{ActionView, SubjectPatient}},
				RolePatient: {{ActionView, SubjectPatient}},
			}

			for _, role := range catalog.Roles() {
				principal := &Principal{ID: "1", Role: role, Permissions: catalog.PermissionsForRole(role)}

				fromCatalog := make(map[Ability]bool)
				for _, perm := range principal.Permissions {
					if ability, ok := abilities.Lookup(perm); ok {
						fromCatalog[ability] = true
					}
				}
				for _, ability := range extras[role] {
					fromCatalog[ability] = true
				}

				for _, granted := range abilities.For(principal).Abilities() {
					gomega.Expect(fromCatalog[granted]).To(gomega.BeTrue(),
						"role %s holds unexplained ability %v", role, granted)
				}
			}
		})
	})

	ginkgo.Describe("AbilitySet combinators", func() {
		ginkgo.It("should satisfy CanAny with one matching action", func() {
			staff := &Principal{ID: "5", Role: RoleStaff, Permissions: []string{PermViewPatient}}

			set := abilities.For(staff)

			gomega.Expect(set.CanAny([]Action{ActionDelete, ActionView}, SubjectPatient)).To(gomega.BeTrue())
			gomega.Expect(set.CanAny([]Action{ActionDelete, ActionUpdate}, SubjectPatient)).To(gomega.BeFalse())
		})

		ginkgo.It("should require every action for CanAll", func() {
			doctor := &Principal{ID: "2", Role: RoleDoctor, Permissions: []string{PermViewPatient, PermEditPatient}}

			set := abilities.For(doctor)

			gomega.Expect(set.CanAll([]Action{ActionView, ActionUpdate}, SubjectPatient)).To(gomega.BeTrue())
			gomega.Expect(set.CanAll([]Action{ActionView, ActionDelete}, SubjectPatient)).To(gomega.BeFalse())
		})

		ginkgo.It("should let the manage-all wildcard satisfy any combinator", func() {
			admin := &Principal{ID: "1", Role: RoleAdmin}

			set := abilities.For(admin)

			gomega.Expect(set.CanAll([]Action{ActionView, ActionCreate, ActionUpdate, ActionDelete}, SubjectPatient)).To(gomega.BeTrue())
		})
	})
})
