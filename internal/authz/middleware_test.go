package authz

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Gate middleware", func() {
	var (
		gate    *Gate
		next    http.Handler
		invoked bool
	)

	ginkgo.BeforeEach(func() {
		gate = NewGate(DefaultCatalog(), DefaultPolicyRegistry(slog.Default()), DefaultAbilityMap(), slog.Default())
		invoked = false
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			invoked = true
			w.WriteHeader(http.StatusOK)
		})
	})

	request := func(p *Principal) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/1", nil)
		if p != nil {
			req = req.WithContext(ContextWithPrincipal(req.Context(), p))
		}
		return req
	}

	denialBody := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		return body
	}

	ginkgo.Describe("RequireRole", func() {
		ginkgo.It("should return 401 with the generic body when no principal is present", func() {
			rec := httptest.NewRecorder()

			gate.RequireRole(RoleAdmin)(next).ServeHTTP(rec, request(nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(invoked).To(gomega.BeFalse())

			body := denialBody(rec)
			gomega.Expect(body["status"]).To(gomega.BeEquivalentTo(http.StatusUnauthorized))
			gomega.Expect(body["message"]).To(gomega.Equal("authentication required"))
		})

		ginkgo.It("should return 403 without naming the rejecting model", func() {
			rec := httptest.NewRecorder()
			nurse := &Principal{ID: "4", Role: RoleNurse}

			gate.RequireRole(RoleAdmin)(next).ServeHTTP(rec, request(nurse))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(invoked).To(gomega.BeFalse())

			body := denialBody(rec)
			gomega.Expect(body["status"]).To(gomega.BeEquivalentTo(http.StatusForbidden))
			gomega.Expect(body["message"]).To(gomega.Equal("insufficient permissions"))
		})

		ginkgo.It("should pass through when any listed role matches", func() {
			rec := httptest.NewRecorder()
			doctor := &Principal{ID: "2", Role: RoleDoctor}

			gate.RequireRole(RoleAdmin, RoleDoctor)(next).ServeHTTP(rec, request(doctor))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(invoked).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("RequirePermission", func() {
		ginkgo.It("should require every listed permission", func() {
			rec := httptest.NewRecorder()
			doctor := &Principal{ID: "2", Role: RoleDoctor, Permissions: []string{PermViewPatient}}

			gate.RequirePermission(PermViewPatient, PermEditPatient)(next).ServeHTTP(rec, request(doctor))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(invoked).To(gomega.BeFalse())
		})

		ginkgo.It("should pass when all listed permissions are held", func() {
			rec := httptest.NewRecorder()
			doctor := &Principal{ID: "2", Role: RoleDoctor, Permissions: []string{PermViewPatient, PermEditPatient}}

			gate.RequirePermission(PermViewPatient, PermEditPatient)(next).ServeHTTP(rec, request(doctor))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(invoked).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("RequirePermission on manage:users", func() {
		ginkgo.It("should deny a nurse and allow an admin holding the catalog grant", func() {
			catalog := DefaultCatalog()
			guard := gate.RequirePermission(PermManageUsers)

			rec := httptest.NewRecorder()
			nurse := &Principal{ID: "4", Role: RoleNurse, Permissions: catalog.PermissionsForRole(RoleNurse)}
			guard(next).ServeHTTP(rec, request(nurse))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))

			rec = httptest.NewRecorder()
			admin := &Principal{ID: "1", Role: RoleAdmin, Permissions: catalog.PermissionsForRole(RoleAdmin)}
			guard(next).ServeHTTP(rec, request(admin))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})

	ginkgo.Describe("RequireAnyPermission", func() {
		ginkgo.It("should pass with a single matching permission", func() {
			rec := httptest.NewRecorder()
			staff := &Principal{ID: "6", Role: RoleStaff, Permissions: []string{PermViewDischarge}}

			gate.RequireAnyPermission(PermViewPatient, PermViewDischarge)(next).ServeHTTP(rec, request(staff))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})

	ginkgo.Describe("RequireAbacAccess", func() {
		ginkgo.It("should evaluate policies against the described resource", func() {
			descriptor := func(*http.Request) Resource {
				return Resource{Type: ResourceTypePatientRecord, ID: 5, OwnerID: 9}
			}
			gate.WithEnvironmentFunc(func(*http.Request) Environment {
				return Environment{Hour: 10}
			})

			rec := httptest.NewRecorder()
			owner := &Principal{ID: "9", Role: RolePatient}
			gate.RequireAbacAccess(descriptor)(next).ServeHTTP(rec, request(owner))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			rec = httptest.NewRecorder()
			invoked = false
			stranger := &Principal{ID: "11", Role: RolePatient}
			gate.RequireAbacAccess(descriptor)(next).ServeHTTP(rec, request(stranger))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(invoked).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("RequireRbacAndAbac", func() {
		ginkgo.It("should honor the pinned environment hour", func() {
			descriptor := func(*http.Request) Resource {
				return Resource{Type: ResourceTypePatientRecord, ID: 5}
			}
			doctor := &Principal{ID: "2", Role: RoleDoctor, Permissions: []string{PermViewPatient}}
			guard := gate.RequireRbacAndAbac([]string{PermViewPatient}, descriptor)

			gate.WithEnvironmentFunc(func(*http.Request) Environment { return Environment{Hour: 10} })
			rec := httptest.NewRecorder()
			guard(next).ServeHTTP(rec, request(doctor))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			gate.WithEnvironmentFunc(func(*http.Request) Environment { return Environment{Hour: 20} })
			rec = httptest.NewRecorder()
			guard(next).ServeHTTP(rec, request(doctor))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})
	})

	ginkgo.Describe("ability guards", func() {
		ginkgo.It("should gate on the derived capability set", func() {
			rec := httptest.NewRecorder()
			nurse := &Principal{ID: "4", Role: RoleNurse, Permissions: []string{PermViewPatient}}

			gate.RequireAbility(ActionView, SubjectPatient)(next).ServeHTTP(rec, request(nurse))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

			rec = httptest.NewRecorder()
			gate.RequireAllAbilities([]Action{ActionView, ActionUpdate}, SubjectPatient)(next).ServeHTTP(rec, request(nurse))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("should let the admin wildcard pass every ability guard", func() {
			rec := httptest.NewRecorder()
			admin := &Principal{ID: "1", Role: RoleAdmin}

			gate.RequireAllAbilities([]Action{ActionView, ActionUpdate, ActionDelete}, SubjectPatient)(next).ServeHTTP(rec, request(admin))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		})
	})

	ginkgo.Describe("RequirePatientRecordAccess", func() {
		ginkgo.It("should deny when the record id cannot be extracted", func() {
			failingExtractor := func(*http.Request) (int64, error) {
				return 0, http.ErrMissingFile
			}
			rec := httptest.NewRecorder()
			admin := &Principal{ID: "1", Role: RoleAdmin}

			// The extractor fails before any database access happens, so a
			// nil handle is safe here.
			gate.RequirePatientRecordAccess(nil, failingExtractor)(next).ServeHTTP(rec, request(admin))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(invoked).To(gomega.BeFalse())
		})
	})
})
