// Package export writes run results as CSV for spreadsheets and plotting
// tools.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/papapumpkin/orbitflow/internal/orbit"
	"github.com/papapumpkin/orbitflow/internal/spacetime"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// writeAll writes header and rows, flushing once at the end.
func writeAll(w io.Writer, header []string, rows func(emit func(...string) error) error) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	emit := func(fields ...string) error {
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
		return nil
	}
	if err := rows(emit); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// WriteEnergy writes one row per step: step,energy_j.
func WriteEnergy(w io.Writer, series orbit.EnergySeries) error {
	return writeAll(w, []string{"step", "energy_j"}, func(emit func(...string) error) error {
		for i, e := range series {
			if err := emit(strconv.Itoa(i), formatFloat(e)); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTrajectories writes every point of every body: body,step,x,y,vx,vy.
// Bodies are numbered from zero in input order.
func WriteTrajectories(w io.Writer, trajs []orbit.Trajectory) error {
	return writeAll(w, []string{"body", "step", "x", "y", "vx", "vy"}, func(emit func(...string) error) error {
		for b, traj := range trajs {
			body := strconv.Itoa(b)
			for _, pt := range traj {
				if err := emit(body, strconv.Itoa(pt.Step),
					formatFloat(pt.Pos.X), formatFloat(pt.Pos.Y),
					formatFloat(pt.Vel.X), formatFloat(pt.Vel.Y)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteCollisions flattens events to one row per colliding step:
// body_i,body_j,step.
func WriteCollisions(w io.Writer, events []orbit.CollisionEvent) error {
	return writeAll(w, []string{"body_i", "body_j", "step"}, func(emit func(...string) error) error {
		for _, ev := range events {
			i, j := strconv.Itoa(ev.I), strconv.Itoa(ev.J)
			for _, s := range ev.Steps {
				if err := emit(i, j, strconv.Itoa(s)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteBodyTable writes name,mass_kg,distortion,field.
func WriteBodyTable(w io.Writer, rows []spacetime.Row) error {
	return writeAll(w, []string{"name", "mass_kg", "distortion", "field"}, func(emit func(...string) error) error {
		for _, r := range rows {
			if err := emit(r.Name, formatFloat(r.Mass), formatFloat(r.Distortion), formatFloat(r.Field)); err != nil {
				return err
			}
		}
		return nil
	})
}
