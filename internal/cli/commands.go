package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/students/internal/storage"
	"github.com/aanand-mishra/students/internal/types"
)

func (a *app) newGetAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get-all",
		Short: "Retrieve and display all students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, st storage.Storage, _ *slog.Logger) error {
				students, err := st.GetStudents(ctx)
				if err != nil {
					return storeError(err, "listing students")
				}
				printStudents(cmd.OutOrStdout(), students)
				return nil
			})
		},
	}
}

func (a *app) newGetCommand() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "get --id N",
		Short: "Display one student by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, st storage.Storage, _ *slog.Logger) error {
				student, err := st.GetStudentByID(ctx, id)
				if err != nil {
					return storeError(err, "getting student")
				}
				printStudents(cmd.OutOrStdout(), []types.Student{student})
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "student_id")
	cmd.MarkFlagRequired("id")
	return cmd
}

func (a *app) newAddCommand() *cobra.Command {
	var in types.NewStudent
	cmd := &cobra.Command{
		Use:     "add --first F --last L --email E [--date YYYY-MM-DD]",
		Short:   "Insert a new student",
		Example: `  students add --first Hussam --last Nabtiti --email hussam.nabtiti@example.com --date 2023-09-04`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := types.Validate(in); err != nil {
				return usageError(err)
			}
			student, err := in.Student()
			if err != nil {
				return usageError(err)
			}
			return a.withStore(cmd, func(ctx context.Context, st storage.Storage, log *slog.Logger) error {
				id, err := st.CreateStudent(ctx, student)
				if err != nil {
					return storeError(err, "adding student")
				}
				log.Info("student created", slog.Int64("id", id))
				fmt.Fprintf(cmd.OutOrStdout(), "Inserted student_id=%d\n", id)
				a.relist(ctx, cmd, st, log)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first", "", "first name")
	f.StringVar(&in.LastName, "last", "", "last name")
	f.StringVar(&in.Email, "email", "", "email (unique)")
	f.StringVar(&in.EnrollmentDate, "date", "", "enrollment date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("first")
	cmd.MarkFlagRequired("last")
	cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) newUpdateEmailCommand() *cobra.Command {
	var in types.EmailUpdate
	cmd := &cobra.Command{
		Use:   "update-email --id N --email E",
		Short: "Update a student's email by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := types.Validate(in); err != nil {
				return usageError(err)
			}
			return a.withStore(cmd, func(ctx context.Context, st storage.Storage, log *slog.Logger) error {
				affected, err := st.UpdateStudentEmail(ctx, in.ID, in.Email)
				if err != nil {
					return storeError(err, "updating email")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rows updated: %d\n", affected)
				if affected == 0 {
					return notFoundError("no student with student_id=%d", in.ID)
				}
				log.Info("email updated", slog.Int64("id", in.ID))
				a.relist(ctx, cmd, st, log)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&in.ID, "id", 0, "student_id")
	cmd.Flags().StringVar(&in.Email, "email", "", "new email")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) newDeleteCommand() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "delete --id N",
		Short: "Delete a student by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, st storage.Storage, log *slog.Logger) error {
				affected, err := st.DeleteStudentByID(ctx, id)
				if err != nil {
					return storeError(err, "deleting student")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rows deleted: %d\n", affected)
				if affected == 0 {
					return notFoundError("no student with student_id=%d", id)
				}
				log.Info("student deleted", slog.Int64("id", id))
				a.relist(ctx, cmd, st, log)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "student_id")
	cmd.MarkFlagRequired("id")
	return cmd
}

func (a *app) newSetupCommand() *cobra.Command {
	var noSeed bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the students table and insert the seed rows",
		Long: `Create the students table if it does not exist, then insert the three seed
students. Seeding is meant to run once per fresh database: running it again
fails on the unique email constraint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, st storage.Storage, log *slog.Logger) error {
				if err := st.CreateSchema(ctx); err != nil {
					return storeError(err, "creating schema")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Table students ready")
				if noSeed {
					return nil
				}
				if err := st.Seed(ctx); err != nil {
					return storeError(err, "seeding students")
				}
				log.Info("seeded students")
				fmt.Fprintln(cmd.OutOrStdout(), "Inserted seed rows")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "only create the table")
	return cmd
}
