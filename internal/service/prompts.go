package service

// Prompt templates used by the summarizer, analyzer, and ask pipelines.
// Placeholders are substituted with strings.Replace, one pass each.

const summarizerInquiryTemplate = `Shorten the text in the CONTENT, attempting to answer the INQUIRY. You should follow ALL the following rules when generating the summary:
    - Any code found in the CONTENT should ALWAYS be preserved in the summary, unchanged.
    - Code will be surrounded by backticks (` + "`" + `) or triple backticks (` + "```" + `).
    - Code examples that are relevant to the INQUIRY must be preserved in their entirety.
    - Summary should include code examples that are relevant to the INQUIRY, based on the content. Do not make up any code examples on your own.
    - The summary will answer the INQUIRY. If it cannot be answered, preserve the most relevant information that might help answer related questions.
    - Preserve any specific details, numbers, dates, names, and technical terms that are relevant to the INQUIRY.
    - Preserve any step-by-step instructions or procedures that are relevant to the INQUIRY.
    - The summary should be under 8000 characters.
    - The summary should be at least 4000 characters long if possible, to preserve sufficient context.
    - If multiple similar items exist, group them together and summarize their common aspects while preserving unique details.
    - Maintain the original structure and hierarchy of information where possible.
    - Do not add any new information that wasn't in the original content.
    - Do not interpret or explain the content, just summarize it.

    INQUIRY: {inquiry}
    CONTENT: {document}

    Final answer:
    `

const summarizerDocumentTemplate = `Summarize the text in the CONTENT. You should follow ALL the following rules when generating the summary:
    - Any code found in the CONTENT should ALWAYS be preserved in the summary, unchanged.
    - Code will be surrounded by backticks (` + "`" + `) or triple backticks (` + "```" + `).
    - Summary should include code examples when possible. Do not make up any code examples on your own.
    - The summary should be under 8000 characters.
    - The summary should be at least 4000 characters long if possible.
    - Preserve any specific details, numbers, dates, names, and technical terms.
    - Preserve any step-by-step instructions or procedures.
    - If multiple similar items exist, group them together and summarize their common aspects while preserving unique details.
    - Maintain the original structure and hierarchy of information where possible.
    - Do not add any new information that wasn't in the original content.
    - Do not interpret or explain the content, just summarize it.

    CONTENT: {document}

    Final answer:
    `

const analysisTemplate = `You will be analyzing a meeting transcript and extracting specific information from it. Here is the transcript:
<transcript>
{{TRANSCRIPT}}
</transcript>

Your task is to extract the following information from the transcript:
1. Action items with clear titles, descriptions, and if mentioned: assignees, priority levels, and due dates
2. A brief summary of the meeting (2-3 sentences)
3. Key discussion points

Follow these steps to complete the task:

1. Extracting Action Items:
   - Carefully read through the transcript and identify any tasks, assignments, or commitments made during the meeting.
   - For each action item, determine:
     a. A clear, concise title
     b. A detailed description
     c. The assignee (if mentioned)
     d. The priority level (if mentioned, categorize as High, Medium, or Low)
     e. The due date (if mentioned, format as YYYY-MM-DD)

2. Writing a Summary:
   - After analyzing the transcript, write a brief summary of the meeting in 2-3 sentences.
   - Focus on the main purpose of the meeting and the most important outcomes or decisions.

3. Identifying Key Discussion Points:
   - List the main topics or issues that were discussed during the meeting.
   - Focus on points that were given significant attention or led to important decisions.

4. Formatting the Output:
   Format your response in JSON as follows:
   {
     "actionItems": [
       {
         "title": "string",
         "description": "string",
         "assignee": "string" (optional),
         "priority": "High|Medium|Low" (optional),
         "dueDate": "YYYY-MM-DD" (optional)
       }
     ],
     "summary": "string",
     "keyPoints": ["string"]
   }`

const inquiryTemplate = `Given the following user prompt and conversation log, formulate a question that would be the most relevant to provide the user with an answer from a knowledge base.
    You should follow ALL the following rules when generating and answer:
    - Always prioritize the user prompt over the conversation log.
    - Ignore any conversation log that is not directly related to the user prompt.
    - Only attempt to answer if a question was posed.
    - The question should be a single sentence that captures the main intent.
    - You should remove any punctuation from the question.
    - You should remove any words that are not relevant to the question.
    - You should expand the question to include relevant technical terms that might appear in the documentation.
    - If you are unable to formulate a question, respond with the same USER PROMPT you got.

    USER PROMPT: {userPrompt}

    CONVERSATION LOG: {conversationHistory}

    Final answer:
    `

const qaTemplate = `Answer the question based on the context below. You should follow ALL the following rules when generating and answer:
        - There will be a CONVERSATION LOG, CONTEXT, and a QUESTION.
        - The final answer must always be styled using markdown.
        - Your main goal is to point the user to the right source of information (the source is always a URL) based on the CONTEXT you are given.
        - Your secondary goal is to provide the user with an answer that is relevant to the question.
        - Take into account the entire conversation so far, marked as CONVERSATION LOG, but prioritize the CONTEXT.
        - Based on the CONTEXT, choose the source that is most relevant to the QUESTION.
        - Do not make up any answers if the CONTEXT does not have relevant information.
        - The CONTEXT is a set of JSON objects, each includes the field "text" where the content is stored, and "url" where the url of the page is stored.
        - Always include the source URLs in the answer as "Sources" or "References", as numbered markdown links.
        - Do not mention the CONTEXT or the CONVERSATION LOG in the answer, but use them to generate the answer.
        - ALWAYS prefer the result with the highest "score" value.
        - The answer should only be based on the CONTEXT. Do not use any external sources.
        - Summarize the CONTEXT to make it easier to read, but don't omit any information.
        - It is IMPERATIVE that any link provided is found in the CONTEXT. Prefer not to provide a link if it is not found in the CONTEXT.

        CONVERSATION LOG: {conversationHistory}

        CONTEXT: {summaries}

        QUESTION: {question}

        URLS: {urls}

        Final Answer: `
