package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/notifykit/pkg/job"
)

var notifyCmd = &cobra.Command{
	Use:   "notify <delivery> <action> [args...]",
	Short: "Dispatch a notification through a manifest delivery",
	Long: "Dispatches action on the named manifest delivery with stand-in handlers. " +
		"Deferred deliveries go to QUEUE_BACKEND; the inline backend performs them at once.",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path, _ := cmd.Flags().GetString("file")
		params, _ := cmd.Flags().GetStringToString("param")
		kwargs, _ := cmd.Flags().GetStringToString("kwarg")
		now, _ := cmd.Flags().GetBool("now")
		queueName, _ := cmd.Flags().GetString("queue")
		delay, _ := cmd.Flags().GetDuration("delay")

		rt, err := newRuntime(ctx, path)
		if err != nil {
			return err
		}
		defer rt.Close()

		class, err := rt.Class(args[0])
		if err != nil {
			return err
		}

		d := class.With(toParams(params)).WithEnqueueOptions(job.WithQueue(queueName), job.WithDelay(delay))
		values := toValues(args[2:], kwargs)

		if now {
			err = d.NotifyNow(ctx, args[1], values...)
		} else {
			err = d.Notify(ctx, args[1], values...)
		}
		if err != nil {
			return err
		}
		mode := "enqueued"
		if now || rt.backend.storage == nil {
			mode = "delivered"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s#%s %s\n", class.Name(), args[1], mode)
		return nil
	},
}

func toParams(in map[string]string) job.Params {
	if len(in) == 0 {
		return nil
	}
	out := make(job.Params, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func toValues(positional []string, kwargs map[string]string) []any {
	values := make([]any, 0, len(positional)+1)
	for _, p := range positional {
		values = append(values, p)
	}
	if len(kwargs) > 0 {
		kw := make(job.Kwargs, len(kwargs))
		for k, v := range kwargs {
			kw[k] = v
		}
		values = append(values, kw)
	}
	return values
}
