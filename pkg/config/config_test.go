package config_test

import (
	"os"
	"reflect"
	"testing"
	"trace-relay/pkg/config"
)

func TestGetConfig(t *testing.T) {
	type args struct {
		configtext string
	}
	tests := []struct {
		name    string
		args    args
		want    config.Config
		wantErr bool
	}{
		{
			name: "test1",
			args: args{configtext: `
				CollectorIP = "127.0.0.1"
				CollectorPort = 7981
				PacketsPerSec = 500
				SpoolDir = "./spool"
				DBFile = "relay.db"
				MetricsPort = 9090`},
			want: config.Config{
				CollectorIP:   "127.0.0.1",
				CollectorPort: 7981,
				PacketsPerSec: 500,
				SpoolDir:      "./spool",
				DBFile:        "relay.db",
				MetricsPort:   9090,
			},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var filename string
			func() {
				f, err := os.CreateTemp("", "")
				if (err != nil) != tt.wantErr {
					t.Errorf("CreateTemp() error = %v, wantErr %v", err, tt.wantErr)
					return
				}
				defer f.Close()
				filename = f.Name()
				_, err = f.WriteString(tt.args.configtext)
				if (err != nil) != tt.wantErr {
					t.Errorf("WriteString() error = %v, wantErr %v", err, tt.wantErr)
					return
				}
			}()
			defer os.Remove(filename)
			got, err := config.GetConfig(filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetConfig() = %v, want %v", got, tt.want)
			}
		})
	}
}
