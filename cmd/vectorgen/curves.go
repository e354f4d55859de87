package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/smallyu/go-detecdsa/pkg/ecc"
)

var dumpFlag = &cli.StringFlag{
	Name:  "dump",
	Usage: "print the TOML parameter file of the named curve",
}

var curvesCommand = &cli.Command{
	Name:   "curves",
	Usage:  "Lists the built-in curves or dumps their parameters",
	Action: curvesAction,
	Flags:  []cli.Flag{dumpFlag},
}

func curvesAction(ctx *cli.Context) error {
	w := ctx.App.Writer
	if ref := ctx.String(dumpFlag.Name); ref != "" {
		params, err := ecc.Resolve(ref)
		if err != nil {
			return err
		}
		data, err := params.MarshalTOML()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	for _, name := range ecc.Names() {
		params, _ := ecc.ParamsByName(name)
		fmt.Fprintf(w, "%-10s %d bits\n", name, params.N.BitLen())
	}
	return nil
}
