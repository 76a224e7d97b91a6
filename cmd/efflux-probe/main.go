package main

import (
	"crypto/rand"
	"encoding/binary"
	"net"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/jawher/mow.cli"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/akebayeri/efflux/pkg/rtp"
	"github.com/akebayeri/efflux/pkg/transport"
)

const (
	appName = "efflux-probe"
	appDesc = "joins an RTP session and logs participant activity"
)

func main() {
	app := cli.App(appName, appDesc)

	dataAddr := app.String(cli.StringOpt{
		Name:   "data",
		Desc:   "local address to bind the RTP data channel to",
		EnvVar: "EFFLUX_DATA_ADDR",
		Value:  "0.0.0.0:5004",
	})

	controlAddr := app.String(cli.StringOpt{
		Name:   "control",
		Desc:   "local address to bind the RTCP control channel to",
		EnvVar: "EFFLUX_CONTROL_ADDR",
		Value:  "0.0.0.0:5005",
	})

	payloadType := app.Int(cli.IntOpt{
		Name:   "payload-type",
		Desc:   "RTP payload type this session accepts",
		EnvVar: "EFFLUX_PAYLOAD_TYPE",
		Value:  0,
	})

	sessionID := app.String(cli.StringOpt{
		Name:   "session-id",
		Desc:   "identifier used in auto-synthesized SDES CNAMEs",
		EnvVar: "EFFLUX_SESSION_ID",
		Value:  "efflux-probe",
	})

	app.Action = func() {
		logger := log.StandardLogger().WithField("component", "efflux-probe")

		local := rtp.NewParticipant(randomLocalSSRC(), nil, nil)
		cfg := rtp.DefaultConfig()
		cfg.Host = *dataAddr
		cfg.Logger = logger

		engine, err := rtp.New(*sessionID, *payloadType, local, cfg)
		if err != nil {
			logger.WithError(err).Fatal("failed to construct engine")
		}

		if err := engine.SetMetricsRegisterer(prometheus.DefaultRegisterer); err != nil {
			logger.WithError(err).Fatal("failed to register metrics")
		}

		data := &transport.UDPTransport{}
		control := &transport.UDPTransport{}
		if err := engine.SetTransports(data, control); err != nil {
			logger.WithError(err).Fatal("failed to set transports")
		}

		engine.AddEventListener(&logEventListener{logger: logger})
		engine.AddDataListener(func(_ *rtp.Engine, p *rtp.Participant, packet *rtp.DataPacket) {
			logger.WithFields(log.Fields{
				"ssrc": p.SSRC,
				"seq":  packet.SequenceNumber,
				"size": len(packet.Payload),
			}).Info("data packet received")
		})
		engine.AddAppDataListener(func(_ *rtp.Engine, app *rtp.AppData) {
			logger.WithFields(log.Fields{
				"ssrc": app.SSRC,
				"name": string(app.Name[:]),
			}).Info("app data received")
		})

		local.DataAddress = resolveOrExit(logger, *dataAddr)
		local.ControlAddress = resolveOrExit(logger, *controlAddr)

		if err := engine.Init(); err != nil {
			logger.WithError(err).Fatal("failed to start engine")
		}
		logger.WithFields(log.Fields{
			"ssrc":    engine.LocalParticipant().SSRC,
			"data":    *dataAddr,
			"control": *controlAddr,
		}).Info("session engine running")

		waitForSignal()
		engine.Terminate(nil)
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("failed to run efflux-probe")
	}
}

type logEventListener struct {
	logger log.FieldLogger
}

func (l *logEventListener) ResolvedSSRCConflict(_ *rtp.Engine, old, newSSRC uint32) {
	l.logger.WithFields(log.Fields{"old_ssrc": old, "new_ssrc": newSSRC}).Warn("resolved SSRC conflict")
}

func (l *logEventListener) ParticipantJoinedFromData(_ *rtp.Engine, p *rtp.Participant, _ *rtp.DataPacket) {
	l.logger.WithField("ssrc", p.SSRC).Info("participant joined from data")
}

func (l *logEventListener) ParticipantJoinedFromControl(_ *rtp.Engine, p *rtp.Participant, chunk rtp.SDESChunk) {
	l.logger.WithFields(log.Fields{"ssrc": p.SSRC, "cname": chunk.CNAME}).Info("participant joined from control")
}

func (l *logEventListener) ParticipantDataUpdated(_ *rtp.Engine, p *rtp.Participant) {
	l.logger.WithField("ssrc", p.SSRC).Info("participant descriptive data updated")
}

func (l *logEventListener) ParticipantLeft(_ *rtp.Engine, p *rtp.Participant) {
	l.logger.WithField("ssrc", p.SSRC).Info("participant left")
}

func (l *logEventListener) SessionTerminated(_ *rtp.Engine, cause error) {
	l.logger.WithError(cause).Info("session terminated")
}

func waitForSignal() {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
}

func resolveOrExit(logger log.FieldLogger, addr string) *net.UDPAddr {
	resolved, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		logger.WithError(err).Fatal("failed to resolve address")
	}
	return resolved
}

func randomLocalSSRC() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}
