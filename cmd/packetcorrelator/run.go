package main

import (
	"fmt"
	"time"

	"github.com/lirlia/packetcorrelator/internal/logging"
	"github.com/lirlia/packetcorrelator/internal/metrics"
	"github.com/lirlia/packetcorrelator/internal/packetlist"
	"github.com/lirlia/packetcorrelator/internal/payload"
	"github.com/lirlia/packetcorrelator/internal/pcapdump"
	"github.com/lirlia/packetcorrelator/internal/template"
	"github.com/lirlia/packetcorrelator/internal/txrx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultTimeoutMS = 5000

func runCommand() *cobra.Command {
	var (
		templateFile string
		ifaceIn      string
		ifaceOut     string
		outputPCAP   string
		timeoutMS    uint32
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a packet template, inject it, and correlate replies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if templateFile == "" || ifaceIn == "" || ifaceOut == "" {
				return fail(1, fmt.Errorf("run: -f, -r, and -s are all required"))
			}
			if timeoutMS == 0 {
				timeoutMS = defaultTimeoutMS
			}

			log, err := logging.New(debug)
			if err != nil {
				return fail(1, fmt.Errorf("run: init logger: %w", err))
			}
			defer log.Sync()

			records, err := template.Load(templateFile)
			if err != nil {
				return fail(1, err)
			}

			list, skipped := template.Expand(records, payload.NewCounter(), log)
			if skipped > 0 {
				log.Warn("skipped construction-invalid packets", zap.Int("count", skipped))
			}
			if list.Len() == 0 {
				return fail(2, fmt.Errorf("run: template produced zero packets"))
			}

			if outputPCAP != "" {
				if err := dumpToFile(list, outputPCAP, log); err != nil {
					return fail(3, err)
				}
			}

			txHandle, err := txrx.OpenInjector(ifaceOut)
			if err != nil {
				return fail(4, fmt.Errorf("run: open TX interface %q: %w", ifaceOut, err))
			}
			defer txHandle.Close()

			rxHandle, err := txrx.OpenCapture(ifaceIn)
			if err != nil {
				return fail(4, fmt.Errorf("run: open RX interface %q: %w", ifaceIn, err))
			}

			log.Info("starting tx/rx",
				zap.String("tx_iface", ifaceOut), zap.String("rx_iface", ifaceIn),
				zap.Uint32("timeout_ms", timeoutMS), zap.Int("packets", list.Len()))

			result, err := txrx.Run(txHandle, rxHandle, list, time.Duration(timeoutMS)*time.Millisecond, log)
			if err != nil {
				return fail(4, err)
			}

			log.Info("tx/rx complete",
				zap.Int("sent", result.Sent), zap.Int("received", result.Received),
				zap.Int("lost", result.Lost), zap.Float64("loss_pct", result.LossPct))

			path, err := metrics.WriteCSV(result.SendNS, result.RecvNS, time.Now())
			if err != nil {
				log.Warn("failed to write latency csv", zap.Error(err))
			} else {
				log.Info("wrote latency csv", zap.String("path", path))
			}
			metrics.LogSummary(log, metrics.Summarize(result.SendNS, result.RecvNS))

			return nil
		},
	}

	cmd.Flags().StringVarP(&templateFile, "file", "f", "", "JSON packet template file (required)")
	cmd.Flags().StringVarP(&ifaceIn, "rx", "r", "", "capture (RX) interface (required)")
	cmd.Flags().StringVarP(&ifaceOut, "tx", "s", "", "send (TX) interface (required)")
	cmd.Flags().StringVarP(&outputPCAP, "output", "o", "", "optional pcap file to record injected packets")
	cmd.Flags().Uint32VarP(&timeoutMS, "timeout", "t", defaultTimeoutMS, "RX timeout in milliseconds after TX completes (0 uses the default)")

	return cmd
}

func dumpToFile(list *packetlist.List, path string, log *zap.Logger) error {
	dump, err := pcapdump.Open(path)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, p := range list.All() {
		if err := dump.WritePacket(p.Bytes, now); err != nil {
			dump.Close()
			return err
		}
	}
	if err := dump.Close(); err != nil {
		return err
	}
	log.Info("wrote pcap dump", zap.String("path", path), zap.Int("packets", list.Len()))
	return nil
}
