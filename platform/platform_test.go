package platform

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/liamcoop/updategate/gate"
	"github.com/liamcoop/updategate/storelink"
)

func TestClassifyInstaller(t *testing.T) {
	tests := []struct {
		pkg  string
		err  error
		want gate.InstallerSource
	}{
		{"com.android.vending", nil, gate.InstallerPlayStore},
		{"", nil, gate.InstallerSideload},
		{"null", nil, gate.InstallerSideload},
		{"com.amazon.venezia", nil, gate.InstallerOther},
		{"com.android.vending", errors.New("name not found"), gate.InstallerUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyInstaller(tt.pkg, tt.err); got != tt.want {
			t.Errorf("ClassifyInstaller(%q, %v) = %q, want %q", tt.pkg, tt.err, got, tt.want)
		}
	}
}

func TestValidateDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		d       Descriptor
		wantErr string
	}{
		{name: "android", d: Android()},
		{name: "ios", d: IOS()},
		{name: "custom", d: Descriptor{Tag: "harmony_os", Store: storelink.PlayStore{}}},
		{name: "empty tag", d: Descriptor{Store: storelink.PlayStore{}}, wantErr: "empty"},
		{name: "uppercase tag", d: Descriptor{Tag: "Android", Store: storelink.PlayStore{}}, wantErr: "pattern"},
		{name: "long tag", d: Descriptor{Tag: gate.Platform(strings.Repeat("a", 33)), Store: storelink.PlayStore{}}, wantErr: "32"},
		{name: "no store", d: Descriptor{Tag: "web"}, wantErr: "store"},
		{
			name:    "in-place update without installer source",
			d:       Descriptor{Tag: "web", Store: storelink.PlayStore{}, Capabilities: gate.Capabilities{InPlaceUpdate: true}},
			wantErr: "installer source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescriptor(tt.d)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateDescriptor() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	var tags []gate.Platform
	for _, d := range r.List() {
		tags = append(tags, d.Tag)
	}
	if diff := cmp.Diff([]gate.Platform{gate.PlatformAndroid, gate.PlatformIOS}, tags); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	d, err := r.Get(gate.PlatformAndroid)
	if err != nil {
		t.Fatalf("Get(android) failed: %v", err)
	}
	if !d.Capabilities.InPlaceUpdate || !d.Capabilities.InstallerSource {
		t.Errorf("android capabilities = %+v", d.Capabilities)
	}

	if err := r.Register(Descriptor{Tag: "web", Store: storelink.PlayStore{}}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if _, err := r.Get("web"); err != nil {
		t.Errorf("Get(web) after Register failed: %v", err)
	}

	if err := r.Register(Descriptor{Tag: "Bad Tag"}); err == nil {
		t.Error("Register() should reject an invalid descriptor")
	}

	if err := r.Remove("web"); err != nil {
		t.Errorf("Remove(web) failed: %v", err)
	}
	if err := r.Remove("web"); err == nil {
		t.Error("Remove() of a missing platform should fail")
	}
	if _, err := r.Get("web"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Get(web) after Remove error = %v", err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(Descriptor{Tag: "web", Store: storelink.AppStore{}})
		}()
		go func() {
			defer wg.Done()
			if _, err := r.Get(gate.PlatformIOS); err != nil {
				t.Errorf("Get(ios) failed: %v", err)
			}
			r.List()
		}()
	}
	wg.Wait()
}

func TestDescriptorEnvironment(t *testing.T) {
	detached := false
	empty := ""

	tests := []struct {
		name string
		d    Descriptor
		f    Facts
		want gate.DecisionReport
	}{
		{
			name: "android update started",
			d:    Android(),
			f: Facts{
				AppID: "com.example.app", CurrentVersion: "1.0.0", InstallerSource: gate.InstallerPlayStore,
				UpdateAvailable: true, UpdateAllowed: true,
			},
			want: gate.DecisionReport{
				Action: gate.ActionUpdateStarted, Platform: gate.PlatformAndroid,
				CurrentVersion: "1.0.0", MinVersion: "2.0.0", InstallerSource: gate.InstallerPlayStore,
				Reason: gate.ReasonBelowMinVersion,
			},
		},
		{
			name: "android query error",
			d:    Android(),
			f: Facts{
				AppID: "com.example.app", CurrentVersion: "1.0.0", InstallerPackage: strPtr(PlayStorePackage),
				QueryError: "Install Error(-2)",
			},
			want: gate.DecisionReport{
				Action: gate.ActionOpenStore, Platform: gate.PlatformAndroid,
				CurrentVersion: "1.0.0", MinVersion: "2.0.0", InstallerSource: gate.InstallerPlayStore,
				Reason:   "PLAY_CORE_ERROR: Install Error(-2)",
				StoreURL: "https://play.google.com/store/apps/details?id=com.example.app",
			},
		},
		{
			name: "android start error",
			d:    Android(),
			f: Facts{
				AppID: "com.example.app", CurrentVersion: "1.0.0", InstallerSource: gate.InstallerPlayStore,
				UpdateAvailable: true, UpdateAllowed: true, StartError: "busy",
			},
			want: gate.DecisionReport{
				Action: gate.ActionOpenStore, Platform: gate.PlatformAndroid,
				CurrentVersion: "1.0.0", MinVersion: "2.0.0", InstallerSource: gate.InstallerPlayStore,
				Reason:   "START_UPDATE_FAILED: busy",
				StoreURL: "https://play.google.com/store/apps/details?id=com.example.app",
			},
		},
		{
			name: "android sideload package",
			d:    Android(),
			f:    Facts{AppID: "com.example.app", CurrentVersion: "1.0.0", InstallerPackage: &empty},
			want: gate.DecisionReport{
				Action: gate.ActionForceBlocked, Platform: gate.PlatformAndroid,
				CurrentVersion: "1.0.0", MinVersion: "2.0.0", InstallerSource: gate.InstallerSideload,
				Reason:   gate.ReasonBelowMinVersion,
				StoreURL: "https://play.google.com/store/apps/details?id=com.example.app",
			},
		},
		{
			name: "android detached",
			d:    Android(),
			f:    Facts{Attached: &detached, CurrentVersion: "1.0.0"},
			want: gate.DecisionReport{Action: gate.ActionError, Platform: gate.PlatformAndroid, Reason: gate.ReasonNoActivity},
		},
		{
			name: "ios ignores reported installer",
			d:    IOS(),
			f:    Facts{CurrentVersion: "1.0", InstallerSource: gate.InstallerPlayStore, UpdateAvailable: true, UpdateAllowed: true},
			want: gate.DecisionReport{
				Action: gate.ActionForceBlocked, Platform: gate.PlatformIOS,
				CurrentVersion: "1.0", MinVersion: "2.0.0", Reason: gate.ReasonBelowMinVersion,
			},
		},
	}

	g, err := gate.New()
	if err != nil {
		t.Fatalf("gate.New() failed: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Evaluate(context.Background(), gate.UpdateRequest{MinVersion: "2.0.0"}, tt.d.Environment(tt.f))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReportedUpdaterComplete(t *testing.T) {
	u := &ReportedUpdater{Facts: Facts{CompleteError: "not downloaded"}}
	if err := u.CompleteUpdate(context.Background()); err == nil || err.Error() != "not downloaded" {
		t.Errorf("CompleteUpdate() error = %v", err)
	}

	u = &ReportedUpdater{}
	if err := u.CompleteUpdate(context.Background()); err != nil {
		t.Errorf("CompleteUpdate() error = %v", err)
	}
}

func strPtr(s string) *string { return &s }

type fakeAndroidHost struct {
	attached     bool
	version      string
	versionErr   error
	installer    string
	installerErr error
	updater      gate.Updater
	opened       []string
}

func (h *fakeAndroidHost) OpenURL(_ context.Context, link string) error {
	h.opened = append(h.opened, link)
	return nil
}
func (h *fakeAndroidHost) Attached() bool                    { return h.attached }
func (h *fakeAndroidHost) PackageName() string               { return "com.example.app" }
func (h *fakeAndroidHost) VersionName() (string, error)      { return h.version, h.versionErr }
func (h *fakeAndroidHost) InstallerPackage() (string, error) { return h.installer, h.installerErr }
func (h *fakeAndroidHost) Updater() gate.Updater             { return h.updater }

type fakeIOSHost struct {
	version    string
	versionErr error
	opened     []string
}

func (h *fakeIOSHost) OpenURL(_ context.Context, link string) error {
	h.opened = append(h.opened, link)
	return nil
}
func (h *fakeIOSHost) Attached() bool                { return true }
func (h *fakeIOSHost) ShortVersion() (string, error) { return h.version, h.versionErr }

func TestAndroidEnvironment(t *testing.T) {
	tests := []struct {
		name       string
		host       *fakeAndroidHost
		wantVer    string
		wantSource gate.InstallerSource
	}{
		{
			name:       "play install",
			host:       &fakeAndroidHost{attached: true, version: "1.2.3", installer: PlayStorePackage},
			wantVer:    "1.2.3",
			wantSource: gate.InstallerPlayStore,
		},
		{
			name:       "lookups fail",
			host:       &fakeAndroidHost{attached: true, versionErr: errors.New("no info"), installerErr: errors.New("no info")},
			wantVer:    "0.0.0",
			wantSource: gate.InstallerUnknown,
		},
		{
			name:       "empty version name",
			host:       &fakeAndroidHost{attached: true, installer: "null"},
			wantVer:    "0.0.0",
			wantSource: gate.InstallerSideload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := AndroidEnvironment(tt.host)
			if env.CurrentVersion != tt.wantVer {
				t.Errorf("CurrentVersion = %q, want %q", env.CurrentVersion, tt.wantVer)
			}
			if env.InstallerSource != tt.wantSource {
				t.Errorf("InstallerSource = %q, want %q", env.InstallerSource, tt.wantSource)
			}
			if env.AppID != "com.example.app" || env.Platform != gate.PlatformAndroid {
				t.Errorf("env = %+v", env)
			}
		})
	}
}

func TestHostEnvironmentsOpenStore(t *testing.T) {
	g, err := gate.New()
	if err != nil {
		t.Fatalf("gate.New() failed: %v", err)
	}

	android := &fakeAndroidHost{attached: true, version: "1.0.0"}
	if err := g.OpenStore(context.Background(), AndroidEnvironment(android), ""); err != nil {
		t.Fatalf("OpenStore(android) failed: %v", err)
	}
	if diff := cmp.Diff([]string{"market://details?id=com.example.app"}, android.opened); diff != "" {
		t.Errorf("android opened mismatch (-want +got):\n%s", diff)
	}

	ios := &fakeIOSHost{versionErr: errors.New("missing key")}
	env := IOSEnvironment(ios)
	if env.CurrentVersion != "0.0.0" {
		t.Errorf("iOS CurrentVersion = %q, want 0.0.0", env.CurrentVersion)
	}
	if err := g.OpenStore(context.Background(), env, ""); err != nil || len(ios.opened) != 0 {
		t.Errorf("OpenStore(ios) without id: err=%v opened=%v", err, ios.opened)
	}
	if err := g.OpenStore(context.Background(), env, "42"); err != nil {
		t.Fatalf("OpenStore(ios) failed: %v", err)
	}
	if diff := cmp.Diff([]string{"itms-apps://itunes.apple.com/app/id42"}, ios.opened); diff != "" {
		t.Errorf("ios opened mismatch (-want +got):\n%s", diff)
	}
}

func TestAndroidEnvironmentTypedNilUpdater(t *testing.T) {
	g, err := gate.New()
	if err != nil {
		t.Fatalf("gate.New() failed: %v", err)
	}

	var unbound *ReportedUpdater
	host := &fakeAndroidHost{attached: true, version: "1.0.0", installer: PlayStorePackage, updater: unbound}
	env := AndroidEnvironment(host)

	got := g.Evaluate(context.Background(), gate.UpdateRequest{MinVersion: "2.0.0"}, env)
	want := gate.DecisionReport{
		Action: gate.ActionForceBlocked, Platform: gate.PlatformAndroid,
		CurrentVersion: "1.0.0", MinVersion: "2.0.0", InstallerSource: gate.InstallerPlayStore,
		Reason:   gate.ReasonBelowMinVersion,
		StoreURL: "https://play.google.com/store/apps/details?id=com.example.app",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
	}
	if err := g.CompleteUpdate(context.Background(), env); err != nil {
		t.Errorf("CompleteUpdate() with unbound updater should succeed, got: %v", err)
	}
}
