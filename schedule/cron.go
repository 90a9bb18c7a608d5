package schedule

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// CronConfig configures a CronDriver.
type CronConfig struct {
	Spec string
}

// CronDriver runs work on a cron schedule. The work here is always "step
// the graph", invoked as a plain func(ctx) error rather than through a
// separate worker abstraction.
type CronDriver struct {
	conf *cron.Cron
	spec string
	work func(ctx context.Context) error
	once sync.Once
}

// NewCronDriver builds a driver that invokes work according to conf.Spec,
// a standard 6-field cron expression (cron.WithSeconds() is enabled).
func NewCronDriver(conf CronConfig, work func(ctx context.Context) error) *CronDriver {
	return &CronDriver{
		conf: cron.New(cron.WithSeconds()),
		spec: conf.Spec,
		work: work,
	}
}

func (c *CronDriver) Start(ctx context.Context) error {
	_, err := c.conf.AddFunc(c.spec, func() {
		if err := c.work(ctx); err != nil {
			slog.Error("schedule: cron tick failed", slog.String("err", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	c.once.Do(c.conf.Start)
	return nil
}

func (c *CronDriver) Stop() error {
	<-c.conf.Stop().Done()
	return nil
}
