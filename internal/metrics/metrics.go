package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wedding_invitation"

// Metrics holds the application's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	invitationsCreated  *prometheus.CounterVec
	invitationsPublish  prometheus.Counter
	invitationsDeleted  prometheus.Counter
	guestMessages       prometheus.Counter
	rsvpResponses       *prometheus.CounterVec
	photoUploads        *prometheus.CounterVec
	whatsappMessagesOut *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		invitationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_created_total",
			Help:      "Invitations created, by whether they were published on creation.",
		}, []string{"published"}),
		invitationsPublish: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_published_total",
			Help:      "Draft to published transitions.",
		}),
		invitationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_deleted_total",
			Help:      "Invitations deleted by their owners.",
		}),
		guestMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guest_messages_total",
			Help:      "Guest messages appended.",
		}),
		rsvpResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rsvp_responses_total",
			Help:      "RSVP responses recorded, by attendance status.",
		}, []string{"status"}),
		photoUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Photo uploads, by role and result.",
		}, []string{"role", "result"}),
		whatsappMessagesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "whatsapp",
			Name:      "messages_sent_total",
			Help:      "Outgoing WhatsApp messages, by kind and result.",
		}, []string{"kind", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.invitationsCreated,
		m.invitationsPublish,
		m.invitationsDeleted,
		m.guestMessages,
		m.rsvpResponses,
		m.photoUploads,
		m.whatsappMessagesOut,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) InvitationCreated(published bool) {
	if m == nil {
		return
	}
	m.invitationsCreated.WithLabelValues(strconv.FormatBool(published)).Inc()
}

func (m *Metrics) InvitationPublished() {
	if m == nil {
		return
	}
	m.invitationsPublish.Inc()
}

func (m *Metrics) InvitationDeleted() {
	if m == nil {
		return
	}
	m.invitationsDeleted.Inc()
}

func (m *Metrics) GuestMessageAdded() {
	if m == nil {
		return
	}
	m.guestMessages.Inc()
}

func (m *Metrics) RSVPRecorded(status string) {
	if m == nil {
		return
	}
	m.rsvpResponses.WithLabelValues(status).Inc()
}

func (m *Metrics) PhotoUploaded(role string, err error) {
	if m == nil {
		return
	}
	m.photoUploads.WithLabelValues(role, result(err)).Inc()
}

func (m *Metrics) WhatsAppSent(kind string, err error) {
	if m == nil {
		return
	}
	m.whatsappMessagesOut.WithLabelValues(kind, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
