package captcha

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	challengesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pchan_captchas_issued",
		Help: "The total number of captcha challenges issued",
	})

	validations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pchan_captcha_validations",
		Help: "The total number of captcha validation attempts by outcome",
	}, []string{"outcome"})
)
