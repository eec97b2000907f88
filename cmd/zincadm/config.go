package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

type knobView struct {
	Name  string `json:"name"`
	Unit  string `json:"unit"`
	Value int64  `json:"value"`
	Min   int64  `json:"min"`
	Max   int64  `json:"max"`
}

var configListCmd = &cobra.Command{
	Use:   "config list",
	Short: "List every configuration knob and its current value",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := devicePath("/config")
		if err != nil {
			return err
		}
		var knobs []knobView
		if err := getJSON(path, &knobs); err != nil {
			return err
		}
		for _, k := range knobs {
			fmt.Printf("%-40s %v%s\t[%d, %d]\n", k.Name, k.Value, k.Unit, k.Min, k.Max)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "config get <name>",
	Short: "Print the current value of a single knob",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := devicePath("/config/" + args[0])
		if err != nil {
			return err
		}
		var k knobView
		if err := getJSON(path, &k); err != nil {
			return err
		}
		fmt.Printf("%s = %d%s\n", k.Name, k.Value, k.Unit)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "config set <name> <value>",
	Short: "Write a new value to a knob (clamped server-side to its declared bounds)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := devicePath("/config/" + args[0])
		if err != nil {
			return err
		}
		body := strings.NewReader(fmt.Sprintf(`{"value": %s}`, args[1]))
		req, err := http.NewRequest(http.MethodPut, serverAddr+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("zincadm: server returned %s", resp.Status)
		}
		var k knobView
		if err := json.NewDecoder(resp.Body).Decode(&k); err != nil {
			return err
		}
		fmt.Printf("%s = %d%s\n", k.Name, k.Value, k.Unit)
		return nil
	},
}

func getJSON(path string, out any) error {
	resp, err := http.Get(serverAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zincadm: server returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
