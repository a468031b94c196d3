// Debug stand-in for the real collector: accepts connections, decodes every
// packet and logs it. Useful for eyeballing the relay without a real
// collector around.
package main

import (
	"fmt"
	"io"
	"net"
	"strings"
	"trace-relay/pkg/config"
	"trace-relay/pkg/packet"
	"trace-relay/pkg/utils"

	"github.com/sirupsen/logrus"
)

func handle(conn net.Conn) {
	defer conn.Close()
	l := logrus.WithFields(logrus.Fields{
		"Remote": conn.RemoteAddr().String(),
	})
	l.Infof("Connection opened")
	for {
		pkt, err := packet.ReadPacket(conn)
		if err != nil {
			if err != io.EOF {
				l.Errorf("Error reading packet: %v", err)
			}
			l.Infof("Connection closed")
			return
		}
		switch pkt.Nsamp {
		case packet.TagFlag:
			l.Infof("Tag packet, session '%s'", strings.TrimSpace(pkt.Header.SeedName))
		case packet.ForceoutFlag:
			l.WithFields(logrus.Fields{
				"SeedName": pkt.Header.SeedName,
				"Sequence": pkt.Header.Sequence,
			}).Infof("Forceout packet")
		default:
			l.WithFields(logrus.Fields{
				"SeedName": pkt.Header.SeedName,
				"Sequence": pkt.Header.Sequence,
				"Rate":     packet.DecodeRate(pkt.Header.RateMantissa, pkt.Header.RateDivisor),
			}).Infof("Data packet, %d samples", pkt.Nsamp)
		}
	}
}

func main() {
	utils.InitializeLogging("collector.log")
	conf, err := config.GetConfig("config.toml")
	if err != nil {
		logrus.Errorf("Failed reading config with err %v", err)
		return
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", conf.CollectorIP, conf.CollectorPort))
	if err != nil {
		logrus.Errorf("Failed listening with err %v", err)
		return
	}
	defer listener.Close()
	logrus.Infof("Debug collector listening on %s", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			logrus.Errorf("Accept error: %v", err)
			return
		}
		go handle(conn)
	}
}
