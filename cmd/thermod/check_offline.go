package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"thermo-monitor-backend/internal/alerting"
	"thermo-monitor-backend/internal/logger"
	"thermo-monitor-backend/internal/notification"
	"thermo-monitor-backend/internal/sweep"
)

var checkOfflineCmd = &cobra.Command{
	Use:   "check-offline-sensors",
	Short: "Check every active device once and raise offline alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, appStore, err := bootstrap()
		if err != nil {
			return err
		}

		alerts := alerting.NewService(appStore.Alerts(), appStore.SensorData(), thresholdsFrom(cfg),
			alerting.WithLogger(logger.WithComponent("alerting")))
		sweeper := sweep.NewService(cfg.Sweep, appStore.Devices(), alerts, notification.Discard)

		fmt.Fprintln(cmd.OutOrStdout(), "Checking for offline sensors...")
		summary, err := sweeper.SweepOnce(cmd.Context())
		if summary != nil {
			for _, a := range summary.Offline {
				fmt.Fprintf(cmd.OutOrStdout(), "Created offline alert for device %d\n", a.DeviceID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checked %d devices, %d offline, %d failed\n",
				summary.Checked, len(summary.Offline), summary.Failed)
		}
		return err
	},
}
