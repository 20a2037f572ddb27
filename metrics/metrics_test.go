package metrics

import (
	"net/http"
	"net/http/httptest"

	"github.com/prometheus/client_golang/prometheus/testutil"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Recorder", func() {
	It("Counts stub outcomes and control commands", func() {
		r := New()

		r.StubServed(true)
		r.StubServed(true)
		r.StubServed(false)
		r.ControlHandled("add", http.StatusCreated)

		Expect(testutil.ToFloat64(r.stubRequests.WithLabelValues(OutcomeHit))).To(Equal(2.0))
		Expect(testutil.ToFloat64(r.stubRequests.WithLabelValues(OutcomeMiss))).To(Equal(1.0))
		Expect(testutil.ToFloat64(r.controlRequests.WithLabelValues("add", "201"))).To(Equal(1.0))

		rec := httptest.NewRecorder()
		r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		Expect(rec.Body.String()).To(ContainSubstring(`nockpoint_stub_requests_total{outcome="hit"} 2`))
	})

	It("Does nothing when nil", func() {
		var r *Recorder

		Expect(func() {
			r.StubServed(true)
			r.ControlHandled("status", http.StatusOK)
		}).NotTo(Panic())
	})
})
