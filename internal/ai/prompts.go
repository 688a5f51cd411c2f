package ai

// Prompt templates for the interview-analysis calls. Each prompt instructs
// the model to answer with a single JSON object so responses can be parsed
// directly (after stripping any markdown fences).

const speakerIdentificationPrompt = `You are analyzing a transcript to identify who each speaker is.

The transcript contains speakers labeled A, B, C, etc. Your task is to identify:
1. Which speaker is the SUBJECT being interviewed (the person we want to learn about)
2. Which speakers are the INTERVIEWERS (the people asking questions)

Look for clues like:
- Introductions ("I'm [name] from [company]")
- Who asks questions vs who answers them
- References to their role/company/background
- The subject typically shares expertise, experiences, and opinions about their work

## Subject Name (the person being interviewed)
%s

## Transcript
%s

Return a JSON object with this structure:
{
  "subject_speaker": "A",
  "reasoning": "brief explanation of how you identified the subject"
}

Return ONLY the JSON, no other text.`

const diarizationPrompt = `You are analyzing a raw transcript of a conversation. The transcript has NO speaker labels - it is plain text with numbered lines. Your job is to:

1. DIARIZE the transcript by assigning speaker labels to line ranges. Label speakers as "A", "B", "C", etc.
2. IDENTIFY which speaker is the SUBJECT (the person we want to learn about, not the interviewer(s)).

## Subject Name
%s

## Additional Context
%s

## Numbered Transcript
%s

## Instructions
- Read through the entire transcript carefully
- Identify speaker changes based on conversational cues (questions vs answers, topic shifts, turn-taking patterns, references to roles/names)
- Assign consistent speaker letters (A, B, C, etc.) to each speaker throughout
- Return speaker turns as line ranges (start_line, end_line) that cover the entire transcript with no gaps and no overlaps
- Determine which speaker letter corresponds to the subject
- The subject is typically the person sharing information, experiences, and opinions, while interviewers ask questions
- Do NOT reproduce the transcript text - only return line numbers

Return a JSON object with this structure:
{
  "segments": [{"speaker": "A", "start_line": 1, "end_line": 4}],
  "subject_speaker": "A",
  "reasoning": "brief explanation"
}

Return ONLY the JSON, no other text.`

const analysisPrompt = `You are analyzing a transcript of a recorded conversation.

Your task is to extract key takeaways and assign relevant thematic tags.

IMPORTANT: The SUBJECT of this interview is %[1]s.
Only extract insights, opinions, and information shared BY the subject.
Ignore statements made by the interviewers - we only care about what the subject said.

## Available Tags
- pricing: Pricing models, willingness to pay, cost concerns
- product: Features, UX, functionality, bugs, requests
- gtm: Go-to-market strategy, sales, distribution, channels
- competitors: Competitive landscape, alternatives, switching
- market: Industry trends, market size, timing, macro factors

## Instructions
1. Read the transcript carefully
2. Extract 3-7 key takeaways from what %[1]s said
3. Assign 1-3 relevant tags that best categorize the main themes discussed
4. Be specific and concrete - avoid vague generalizations
5. Focus ONLY on the subject's statements, not the interviewers' questions or comments

## Transcript
%[2]s

Return a JSON object with this structure:
{
  "takeaways": ["takeaway one", "takeaway two", "takeaway three"],
  "tags": ["product"]
}

Return ONLY the JSON, no other text.`

const rollingUpdatePrompt = `You are updating a person's profile based on a new interaction.

## Current State of Play
%s

## New Takeaways from Recent Interaction
%s

## Instructions
1. Analyze what has changed or been learned from this new interaction
2. Generate a "delta" - a concise summary (1-2 sentences) of what's new or changed
3. Generate an updated "state_of_play" - a comprehensive summary (~200 words) that:
   - Incorporates the new information
   - Maintains relevant context from the previous state
   - Reflects the current truth about this person/relationship
   - Is written in present tense

Be specific and actionable. Focus on insights that matter for the relationship.

Return a JSON object with this structure:
{
  "delta": "what changed",
  "updated_state": "the full updated state of play"
}

Return ONLY the JSON, no other text.`

const followupExtractionPrompt = `You are reviewing a conversation transcript for open action items.

The SUBJECT of the conversation is %[1]s.

## Instructions
1. Find concrete commitments and action items that came out of the conversation: things to send, intros to make, questions to answer, meetings to schedule
2. Include items owed to the subject and items the subject asked for
3. Phrase each item as a short imperative ("Send pricing deck", "Intro to Dana from Acme")
4. Skip vague intentions that nobody committed to
5. Return an empty list if there are no action items

## Transcript
%[2]s

Return a JSON object with this structure:
{
  "items": ["Send pricing deck", "Schedule follow-up call for next week"]
}

Return ONLY the JSON, no other text.`

const backgroundPrompt = `Write a short background blurb (2-3 sentences) for a person based on a first conversation with them.

## Person
%s, currently at %s

## Takeaways from the first conversation
%s

## Instructions
- Describe who they are, what they do, and anything notable about their role or experience
- Stick to facts supported by the takeaways; do not speculate
- Write in third person, plain prose

Return a JSON object with this structure:
{
  "background": "the background text"
}

Return ONLY the JSON, no other text.`
