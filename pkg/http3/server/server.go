package server

import (
	"crypto/tls"
	"net/http"

	"h3wire/pkg/http3/server/utils"
	adapter "h3wire/pkg/quic"
	"h3wire/pkg/quic/quicgo"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Server interface {
	Listen() error
}

type server struct {
	cfg        Config
	quicServer adapter.QuicServer
	metrics    *Metrics
}

var _ Server = (*server)(nil)

// NewServer wires a handler into an HTTP/3 server. With no cert configured
// a self signed development certificate is generated.
func NewServer(cfg Config, handler http.Handler) (Server, error) {
	var tlsConf *tls.Config
	if cfg.CertFile != "" {
		cert, err := utils.LoadCertificateFromKeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, err
		}
		tlsConf = utils.ConfigureTLSConfig(&tls.Config{
			Certificates: []tls.Certificate{cert},
		})
	} else {
		log.Warn().Msg("no certificate configured, using a self signed one")
		tlsConf = utils.GenerateTLSConfig()
	}

	metrics := NewMetrics(prometheus.DefaultRegisterer)

	quicServer, err := quicgo.NewQuicGoServer(cfg.Addr, tlsConf, newH3API(handler, metrics))
	if err != nil {
		return nil, err
	}

	return &server{
		cfg:        cfg,
		quicServer: quicServer,
		metrics:    metrics,
	}, nil
}

func (s *server) Listen() error {
	if s.cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Info().Str("addr", s.cfg.MetricsAddr).Msg("metrics endpoint up")
			if err := http.ListenAndServe(s.cfg.MetricsAddr, mux); err != nil {
				log.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	return s.quicServer.Listen()
}
