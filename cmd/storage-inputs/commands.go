package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"github.com/spf13/pflag"

	"github.com/coreweave/storage-inputs/storage"
	"github.com/coreweave/storage-inputs/storage/inputs"
	"github.com/coreweave/storage-inputs/storage/permissions"
)

type action = func(ctx context.Context, a *app, m *inputs.Manager) error

func showCommand(fs *pflag.FlagSet) action {
	policyActions := fs.Bool("policy-actions", false, "print the S3 policy actions granted to each audience instead of the raw inputs")
	return func(ctx context.Context, a *app, m *inputs.Manager) error {
		d, err := m.Descriptor()
		if err != nil {
			return err
		}
		if !*policyActions {
			data, err := storage.EncodeDescriptor(d)
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(data)
			return err
		}

		audiences := []struct {
			name  string
			perms []permissions.Permission
		}{
			{"auth", d.AuthAccess},
			{"guest", d.GuestAccess},
		}
		groups := make([]string, 0, len(d.GroupAccess))
		for group := range d.GroupAccess {
			groups = append(groups, group)
		}
		slices.Sort(groups)
		for _, group := range groups {
			audiences = append(audiences, struct {
				name  string
				perms []permissions.Permission
			}{"group:" + group, d.GroupAccess[group]})
		}

		for _, audience := range audiences {
			actions, err := permissions.CanonicalSetToCloudActions(audience.perms)
			if err != nil {
				return fmt.Errorf("%s access: %w", audience.name, err)
			}
			names := make([]string, len(actions))
			for i, ca := range actions {
				names[i] = string(ca)
			}
			fmt.Fprintf(a.stdout, "%s\t%s\n", audience.name, strings.Join(names, ","))
		}
		return nil
	}
}

func validateCommand(_ *pflag.FlagSet) action {
	return func(ctx context.Context, a *app, m *inputs.Manager) error {
		d, err := m.Descriptor()
		if err != nil {
			return err
		}
		if err := m.ReplaceDescriptor(ctx, d); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "cli inputs for %q are valid\n", m.ResourceName())
		return nil
	}
}

func needsMigrationCommand(_ *pflag.FlagSet) action {
	return func(_ context.Context, a *app, m *inputs.Manager) error {
		fmt.Fprintln(a.stdout, m.NeedsMigration())
		return nil
	}
}

func migrateCommand(_ *pflag.FlagSet) action {
	return func(ctx context.Context, a *app, m *inputs.Manager) error {
		if !m.NeedsMigration() {
			fmt.Fprintf(a.stdout, "%q does not need migration\n", m.ResourceName())
			return nil
		}
		if err := m.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "migrated %q to %s\n", m.ResourceName(), m.Paths().CLIInputs())
		return nil
	}
}

func addTriggerCommand(fs *pflag.FlagSet) action {
	function := fs.String("function", "", "name of the function to invoke")
	prefixes := fs.StringArray("prefix", nil, "object key prefix to trigger on (repeatable)")
	attachRegion := fs.Bool("attach-region", false, "render prefixes with the deployment region attached")
	perms := fs.StringSlice("permission", []string{string(permissions.CreateAndUpdate)}, "CREATE_AND_UPDATE and/or DELETE")
	return func(ctx context.Context, a *app, m *inputs.Manager) error {
		binding, err := triggerBinding(*function, *perms)
		if err != nil {
			return err
		}
		transform := storage.PrefixTransformNone
		if *attachRegion {
			transform = storage.PrefixTransformAttachRegion
		}
		for _, p := range *prefixes {
			binding.TriggerPrefix = append(binding.TriggerPrefix, storage.TriggerPrefix{Prefix: p, PrefixTransform: transform})
		}

		if err := m.AddAdditionalTrigger(binding); err != nil {
			return err
		}
		if err := m.Save(ctx, nil); err != nil {
			return err
		}
		tflog.Info(ctx, "added trigger function", map[string]any{
			"function": binding.TriggerFunction,
			"prefixes": len(binding.TriggerPrefix),
		})
		fmt.Fprintf(a.stdout, "trigger %q bound to %q\n", binding.TriggerFunction, m.ResourceName())
		return nil
	}
}

func setAdminTriggerCommand(fs *pflag.FlagSet) action {
	function := fs.String("function", "", "name of the admin function to invoke")
	perms := fs.StringSlice("permission", []string{string(permissions.CreateAndUpdate), string(permissions.Delete)}, "CREATE_AND_UPDATE and/or DELETE")
	return func(ctx context.Context, a *app, m *inputs.Manager) error {
		binding, err := triggerBinding(*function, *perms)
		if err != nil {
			return err
		}
		if err := m.SetAdminTrigger(binding); err != nil {
			return err
		}
		if err := m.Save(ctx, nil); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "admin trigger %q set on %q\n", binding.TriggerFunction, m.ResourceName())
		return nil
	}
}

func clearAdminTriggerCommand(_ *pflag.FlagSet) action {
	return func(ctx context.Context, a *app, m *inputs.Manager) error {
		if err := m.ClearAdminTrigger(); err != nil {
			return err
		}
		if err := m.Save(ctx, nil); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "admin trigger removed from %q\n", m.ResourceName())
		return nil
	}
}

// triggerBinding builds a binding whose events follow from its permissions.
func triggerBinding(function string, values []string) (storage.TriggerBinding, error) {
	if function == "" {
		return storage.TriggerBinding{}, fmt.Errorf("%w: --function is required", errUsage)
	}
	b := storage.TriggerBinding{TriggerFunction: function}
	for _, v := range values {
		p := permissions.Permission(strings.ToUpper(strings.TrimSpace(v)))
		if !p.Valid() {
			return storage.TriggerBinding{}, &permissions.UnknownValueError{Vocabulary: "permission", Value: v}
		}
		event, err := permissions.TriggerEventForPermission(p)
		if err != nil {
			return storage.TriggerBinding{}, fmt.Errorf("%s: %w", p, err)
		}
		if !slices.Contains(b.Permissions, p) {
			b.Permissions = append(b.Permissions, p)
			b.TriggerEvents = append(b.TriggerEvents, event)
		}
	}
	if len(b.Permissions) == 0 {
		return storage.TriggerBinding{}, fmt.Errorf("%w: at least one --permission is required", errUsage)
	}
	return b, nil
}
